// Package engine orchestrates cleanup plans end to end: protect, delete,
// verify, classify failures, retry or skip, aggregate results.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go-disk-cleaner/internal/metrics"
	"go-disk-cleaner/internal/model"
)

// Protector is the backup manager as the engine sees it. Protect must be
// idempotent per item id so a re-submitted plan never duplicates backups.
type Protector interface {
	Protect(ctx context.Context, planID string, item model.Item) (model.BackupRecord, error)
	Remove(ctx context.Context, item model.Item) error
}

// ResultStore persists execution results for audit and later recovery.
// Store failures are logged, never fatal to the run.
type ResultStore interface {
	SaveResult(ctx context.Context, result model.ExecutionResult) error
}

// Progress is one per-item, per-phase notification. Delivery is
// single-threaded and in plan order; callbacks must not block.
type Progress struct {
	PlanID string               `json:"plan_id"`
	ItemID string               `json:"item_id"`
	Path   string               `json:"path"`
	Phase  model.ExecutionPhase `json:"phase"`
	Index  int                  `json:"index"`
	Total  int                  `json:"total"`
	Status string               `json:"status,omitempty"` // success | failed | skipped
}

type ProgressFunc func(Progress)

// Config carries the retry and abort policy. Every knob is
// operator-tunable; the defaults are the recommended policy.
type Config struct {
	LockedRetries    int           // extra attempts for locked files
	LockedBackoff    time.Duration // base delay, doubled per attempt
	IOAbortThreshold int           // consecutive items with disk errors before aborting
	ItemTimeout      time.Duration // wall-clock budget per item
}

func DefaultConfig() Config {
	return Config{
		LockedRetries:    3,
		LockedBackoff:    250 * time.Millisecond,
		IOAbortThreshold: 3,
		ItemTimeout:      2 * time.Minute,
	}
}

// Engine runs each plan on the calling goroutine; concurrent plans run on
// separate workers, but a given plan id is never executed twice at once.
type Engine struct {
	protector Protector
	results   ResultStore
	cfg       Config

	mu     sync.Mutex
	active map[string]context.CancelFunc

	sleep func(ctx context.Context, d time.Duration) error
}

func New(protector Protector, results ResultStore, cfg Config) *Engine {
	if cfg.LockedRetries <= 0 {
		cfg.LockedRetries = DefaultConfig().LockedRetries
	}
	if cfg.LockedBackoff <= 0 {
		cfg.LockedBackoff = DefaultConfig().LockedBackoff
	}
	if cfg.IOAbortThreshold <= 0 {
		cfg.IOAbortThreshold = DefaultConfig().IOAbortThreshold
	}
	if cfg.ItemTimeout <= 0 {
		cfg.ItemTimeout = DefaultConfig().ItemTimeout
	}
	return &Engine{
		protector: protector,
		results:   results,
		cfg:       cfg,
		active:    map[string]context.CancelFunc{},
		sleep:     sleepCtx,
	}
}

// Running reports whether the plan id currently holds the execution lock.
func (e *Engine) Running(planID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[planID]
	return ok
}

// ActiveCount reports how many plans are executing right now.
func (e *Engine) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}

// Cancel requests cooperative cancellation of a running plan. The
// in-flight item finishes; the run then stops with status Cancelled.
func (e *Engine) Cancel(planID string) bool {
	e.mu.Lock()
	cancel, ok := e.active[planID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Execute runs the plan to a terminal status. Per-item errors never
// escape: they are retried, skipped, or recorded in the result. The only
// error returns are a second concurrent execution of the same plan id
// and a nil-plan programming mistake.
func (e *Engine) Execute(ctx context.Context, plan model.CleanupPlan, onProgress ProgressFunc) (model.ExecutionResult, error) {
	if plan.ID == "" {
		return model.ExecutionResult{}, fmt.Errorf("%w: plan has no id", model.ErrInvalidInput)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if _, exists := e.active[plan.ID]; exists {
		e.mu.Unlock()
		return model.ExecutionResult{}, model.ErrPlanAlreadyRunning
	}
	e.active[plan.ID] = cancel
	e.mu.Unlock()

	metrics.ActiveExecutions.Inc()
	defer func() {
		metrics.ActiveExecutions.Dec()
		e.mu.Lock()
		delete(e.active, plan.ID)
		e.mu.Unlock()
	}()

	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	result := model.ExecutionResult{
		PlanID:     plan.ID,
		Status:     model.StatusRunning,
		StartedAt:  time.Now().UTC(),
		TotalItems: plan.Totals.TotalItems,
		TotalSize:  plan.Totals.TotalSize,
	}
	e.persist(ctx, result)

	slog.Info("execution started", "plan_id", plan.ID, "items", result.TotalItems, "size", result.TotalSize)

	consecutiveIO := 0
	aborted := false

	for index, item := range plan.Items {
		// Cancellation is cooperative and observed only between
		// items, never mid-backup or mid-delete.
		if runCtx.Err() != nil {
			result.Status = model.StatusCancelled
			break
		}

		outcome := e.executeItem(runCtx, plan.ID, item, index, result.TotalItems, onProgress)

		switch {
		case outcome.skipped:
			result.Skipped++
			onProgress(Progress{PlanID: plan.ID, ItemID: item.ID, Path: item.Path, Phase: model.PhaseVerifying, Index: index, Total: result.TotalItems, Status: "skipped"})
		case outcome.failure == nil:
			result.Succeeded++
			result.FreedSize += item.Size
			metrics.ItemsDeleted.Inc()
			metrics.BytesFreed.Add(float64(item.Size))
			onProgress(Progress{PlanID: plan.ID, ItemID: item.ID, Path: item.Path, Phase: model.PhaseVerifying, Index: index, Total: result.TotalItems, Status: "success"})
		default:
			result.Failed++
			result.FailedSize += item.Size
			result.Failures = append(result.Failures, *outcome.failure)
			metrics.ItemFailures.WithLabelValues(string(outcome.failure.Class)).Inc()
			onProgress(Progress{PlanID: plan.ID, ItemID: item.ID, Path: item.Path, Phase: model.PhaseVerifying, Index: index, Total: result.TotalItems, Status: "failed"})
		}

		// A run of disk errors across consecutive items points at a
		// failing volume; keep going and we make things worse.
		if outcome.failure != nil && outcome.failure.Class == model.ClassDiskOrIO {
			consecutiveIO++
			if consecutiveIO >= e.cfg.IOAbortThreshold {
				aborted = true
				triggering := result.Failures[len(result.Failures)-1]
				result.Failures = append([]model.FailureInfo{triggering}, result.Failures[:len(result.Failures)-1]...)
				slog.Error("aborting plan after consecutive disk errors", "plan_id", plan.ID, "count", consecutiveIO)
			}
		} else {
			consecutiveIO = 0
		}

		// Counters advance in plan order, so a snapshot taken now is
		// consistent with "all items up to this index processed".
		e.persist(ctx, result)

		if aborted {
			break
		}
	}

	now := time.Now().UTC()
	result.FinishedAt = &now
	switch {
	case aborted:
		result.Status = model.StatusFailed
	case result.Status == model.StatusCancelled:
		// keep it
	case result.Failed > 0:
		result.Status = model.StatusPartialSuccess
	default:
		result.Status = model.StatusCompleted
	}

	e.persist(ctx, result)
	slog.Info("execution finished", "plan_id", plan.ID, "status", result.Status,
		"succeeded", result.Succeeded, "failed", result.Failed, "skipped", result.Skipped, "freed", result.FreedSize)
	return result, nil
}

type itemOutcome struct {
	skipped bool
	failure *model.FailureInfo
}

// executeItem runs one item through its phases with the class-based retry
// policy applied around each filesystem step.
func (e *Engine) executeItem(ctx context.Context, planID string, item model.Item, index int, total int, onProgress ProgressFunc) itemOutcome {
	itemCtx, cancel := context.WithTimeout(ctx, e.cfg.ItemTimeout)
	defer cancel()

	var record model.BackupRecord

	onProgress(Progress{PlanID: planID, ItemID: item.ID, Path: item.Path, Phase: model.PhaseBackingUp, Index: index, Total: total})
	err := e.withRetry(itemCtx, func() error {
		var protectErr error
		record, protectErr = e.protector.Protect(itemCtx, planID, item)
		return protectErr
	})
	if err != nil {
		return e.outcomeFor(item, err)
	}

	onProgress(Progress{PlanID: planID, ItemID: item.ID, Path: item.Path, Phase: model.PhaseDeleting, Index: index, Total: total})
	err = e.withRetry(itemCtx, func() error {
		return e.protector.Remove(itemCtx, item)
	})
	if err != nil {
		// The backup (if any) is durable; the item stays in place but
		// is recoverable as if already removed.
		outcome := e.outcomeFor(item, err)
		if outcome.failure != nil && record.ID != "" {
			outcome.failure.Message = fmt.Sprintf("%s (backup %s retained)", outcome.failure.Message, record.ID)
		}
		return outcome
	}

	return itemOutcome{}
}

// outcomeFor translates a final per-item error into skip or failure.
func (e *Engine) outcomeFor(item model.Item, err error) itemOutcome {
	class := ClassifyError(err)
	if class == model.ClassNotFound {
		// Already gone is the goal state, just unearned.
		return itemOutcome{skipped: true}
	}
	return itemOutcome{failure: &model.FailureInfo{
		ItemID:      item.ID,
		Path:        item.Path,
		Class:       class,
		Message:     err.Error(),
		Remediation: Remediation(class),
		OccurredAt:  time.Now().UTC(),
	}}
}

// withRetry applies the class policy: locked files get bounded
// exponential backoff, disk errors one immediate retry, everything else
// no retry at all.
func (e *Engine) withRetry(ctx context.Context, op func() error) error {
	err := op()
	if err == nil {
		return nil
	}

	switch ClassifyError(err) {
	case model.ClassFileInUse:
		delay := e.cfg.LockedBackoff
		for attempt := 1; attempt <= e.cfg.LockedRetries; attempt++ {
			if sleepErr := e.sleep(ctx, delay); sleepErr != nil {
				return err
			}
			if err = op(); err == nil {
				return nil
			}
			if ClassifyError(err) != model.ClassFileInUse {
				return err
			}
			delay *= 2
		}
		return err
	case model.ClassDiskOrIO:
		if ctx.Err() != nil {
			return err
		}
		return op()
	default:
		return err
	}
}

func (e *Engine) persist(ctx context.Context, result model.ExecutionResult) {
	if e.results == nil {
		return
	}
	if err := e.results.SaveResult(ctx, result); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("persist execution result failed", "plan_id", result.PlanID, "error", err)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
