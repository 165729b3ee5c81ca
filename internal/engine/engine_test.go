package engine

import (
	"context"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-disk-cleaner/internal/model"
)

type stubProtector struct {
	mu           sync.Mutex
	protectFn    func(planID string, item model.Item) (model.BackupRecord, error)
	removeFn     func(item model.Item) error
	removeCalls  map[string]int
	protectCalls map[string]int
}

func newStubProtector() *stubProtector {
	return &stubProtector{
		removeCalls:  map[string]int{},
		protectCalls: map[string]int{},
	}
}

func (s *stubProtector) Protect(_ context.Context, planID string, item model.Item) (model.BackupRecord, error) {
	s.mu.Lock()
	s.protectCalls[item.ID]++
	s.mu.Unlock()
	if s.protectFn != nil {
		return s.protectFn(planID, item)
	}
	return model.BackupRecord{}, nil
}

func (s *stubProtector) Remove(_ context.Context, item model.Item) error {
	s.mu.Lock()
	s.removeCalls[item.ID]++
	s.mu.Unlock()
	if s.removeFn != nil {
		return s.removeFn(item)
	}
	return nil
}

func (s *stubProtector) removed(itemID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeCalls[itemID]
}

type recordingResults struct {
	mu      sync.Mutex
	results []model.ExecutionResult
}

func (r *recordingResults) SaveResult(_ context.Context, result model.ExecutionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *recordingResults) last() model.ExecutionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results[len(r.results)-1]
}

func testPlan(items ...model.Item) model.CleanupPlan {
	return model.CleanupPlan{
		ID:     "plan-1",
		Items:  items,
		Totals: model.ComputeTotals(items),
	}
}

// fakeSleep records requested delays without waiting.
func fakeSleep(eng *Engine) *[]time.Duration {
	delays := &[]time.Duration{}
	eng.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return delays
}

func TestEngineExecute(t *testing.T) {
	t.Parallel()

	t.Run("all items succeed", func(t *testing.T) {
		protector := newStubProtector()
		results := &recordingResults{}
		eng := New(protector, results, DefaultConfig())

		plan := testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", Size: 100, OriginalTier: model.TierSafe},
			model.Item{ID: "b", Path: "/tmp/b.log", Size: 50, OriginalTier: model.TierSafe},
		)

		result, err := eng.Execute(context.Background(), plan, nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusCompleted, result.Status)
		require.Equal(t, 2, result.Succeeded)
		require.Equal(t, int64(150), result.FreedSize)
		require.NotNil(t, result.FinishedAt)
		require.Equal(t, result.Status, results.last().Status)
	})

	t.Run("plan without id is rejected", func(t *testing.T) {
		eng := New(newStubProtector(), nil, DefaultConfig())

		_, err := eng.Execute(context.Background(), model.CleanupPlan{}, nil)
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("missing items are skipped not failed", func(t *testing.T) {
		protector := newStubProtector()
		protector.removeFn = func(model.Item) error { return os.ErrNotExist }
		eng := New(protector, nil, DefaultConfig())

		result, err := eng.Execute(context.Background(), testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
		), nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusCompleted, result.Status)
		require.Equal(t, 1, result.Skipped)
		require.Empty(t, result.Failures)
	})

	t.Run("permission errors fail without retry", func(t *testing.T) {
		protector := newStubProtector()
		protector.protectFn = func(_ string, _ model.Item) (model.BackupRecord, error) {
			return model.BackupRecord{ID: "bk-1"}, nil
		}
		protector.removeFn = func(model.Item) error { return os.ErrPermission }
		eng := New(protector, nil, DefaultConfig())

		result, err := eng.Execute(context.Background(), testPlan(
			model.Item{ID: "a", Path: "/tmp/a.db", Size: 10, OriginalTier: model.TierSuspicious},
		), nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusPartialSuccess, result.Status)
		require.Equal(t, 1, result.Failed)
		require.Equal(t, int64(10), result.FailedSize)
		require.Equal(t, 1, protector.removed("a"))

		failure := result.Failures[0]
		require.Equal(t, model.ClassPermissionDenied, failure.Class)
		require.Equal(t, "retry with elevated rights", failure.Remediation)
		require.Contains(t, failure.Message, "backup bk-1 retained")
	})
}

func TestEngineLockedFileRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds after doubling backoff", func(t *testing.T) {
		protector := newStubProtector()
		attempts := 0
		protector.removeFn = func(model.Item) error {
			attempts++
			if attempts < 3 {
				return syscall.EBUSY
			}
			return nil
		}
		eng := New(protector, nil, DefaultConfig())
		delays := fakeSleep(eng)

		result, err := eng.Execute(context.Background(), testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
		), nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusCompleted, result.Status)
		require.Equal(t, 1, result.Succeeded)
		require.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond}, *delays)
	})

	t.Run("gives up after the attempt budget", func(t *testing.T) {
		protector := newStubProtector()
		protector.removeFn = func(model.Item) error { return syscall.EBUSY }
		eng := New(protector, nil, DefaultConfig())
		delays := fakeSleep(eng)

		result, err := eng.Execute(context.Background(), testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
		), nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusPartialSuccess, result.Status)
		require.Equal(t, model.ClassFileInUse, result.Failures[0].Class)
		// Initial try plus three retries.
		require.Equal(t, 4, protector.removed("a"))
		require.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, 1000 * time.Millisecond}, *delays)
	})
}

func TestEngineDiskErrors(t *testing.T) {
	t.Parallel()

	t.Run("disk errors get one immediate retry", func(t *testing.T) {
		protector := newStubProtector()
		attempts := 0
		protector.removeFn = func(model.Item) error {
			attempts++
			if attempts == 1 {
				return syscall.EIO
			}
			return nil
		}
		eng := New(protector, nil, DefaultConfig())
		delays := fakeSleep(eng)

		result, err := eng.Execute(context.Background(), testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
		), nil)
		require.NoError(t, err)
		require.Equal(t, 1, result.Succeeded)
		require.Empty(t, *delays)
	})

	t.Run("aborts after consecutive disk failures", func(t *testing.T) {
		protector := newStubProtector()
		protector.removeFn = func(model.Item) error { return syscall.EIO }
		eng := New(protector, nil, Config{IOAbortThreshold: 2})

		plan := testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
			model.Item{ID: "b", Path: "/tmp/b.log", OriginalTier: model.TierSafe},
			model.Item{ID: "c", Path: "/tmp/c.log", OriginalTier: model.TierSafe},
		)

		result, err := eng.Execute(context.Background(), plan, nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusFailed, result.Status)
		require.Equal(t, 2, result.Processed())
		// The triggering failure is reported first.
		require.Equal(t, "b", result.Failures[0].ItemID)
		require.Equal(t, "a", result.Failures[1].ItemID)
		// The third item was never attempted.
		require.Equal(t, 0, protector.removed("c"))
	})

	t.Run("a success resets the consecutive counter", func(t *testing.T) {
		protector := newStubProtector()
		protector.removeFn = func(item model.Item) error {
			if item.ID == "b" {
				return nil
			}
			return syscall.EIO
		}
		eng := New(protector, nil, Config{IOAbortThreshold: 2})

		plan := testPlan(
			model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
			model.Item{ID: "b", Path: "/tmp/b.log", OriginalTier: model.TierSafe},
			model.Item{ID: "c", Path: "/tmp/c.log", OriginalTier: model.TierSafe},
		)

		result, err := eng.Execute(context.Background(), plan, nil)
		require.NoError(t, err)
		require.Equal(t, model.StatusPartialSuccess, result.Status)
		require.Equal(t, 3, result.Processed())
	})
}

func TestEngineCancellation(t *testing.T) {
	t.Parallel()

	protector := newStubProtector()
	eng := New(protector, nil, DefaultConfig())

	plan := testPlan(
		model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe},
		model.Item{ID: "b", Path: "/tmp/b.log", OriginalTier: model.TierSafe},
	)

	// Cancel as soon as the first item completes; the second never runs.
	result, err := eng.Execute(context.Background(), plan, func(p Progress) {
		if p.Status == "success" {
			require.True(t, eng.Cancel(plan.ID))
		}
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusCancelled, result.Status)
	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 0, protector.removed("b"))
}

func TestEngineSingleExecutionPerPlan(t *testing.T) {
	t.Parallel()

	protector := newStubProtector()
	started := make(chan struct{})
	release := make(chan struct{})
	protector.removeFn = func(model.Item) error {
		close(started)
		<-release
		return nil
	}
	eng := New(protector, nil, DefaultConfig())

	plan := testPlan(model.Item{ID: "a", Path: "/tmp/a.log", OriginalTier: model.TierSafe})

	done := make(chan model.ExecutionResult, 1)
	go func() {
		result, _ := eng.Execute(context.Background(), plan, nil)
		done <- result
	}()

	<-started
	require.True(t, eng.Running(plan.ID))
	require.Equal(t, 1, eng.ActiveCount())

	_, err := eng.Execute(context.Background(), plan, nil)
	require.ErrorIs(t, err, model.ErrPlanAlreadyRunning)

	close(release)
	result := <-done
	require.Equal(t, model.StatusCompleted, result.Status)
	require.False(t, eng.Running(plan.ID))
	require.False(t, eng.Cancel(plan.ID))
}
