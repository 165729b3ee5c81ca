package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRiskTier(t *testing.T) {
	t.Parallel()

	require.Equal(t, TierSafe, ParseRiskTier("safe"))
	require.Equal(t, TierSafe, ParseRiskTier("  SAFE "))
	require.Equal(t, TierDangerous, ParseRiskTier("dangerous"))
	require.Equal(t, TierSuspicious, ParseRiskTier("suspicious"))
	// Unknown input falls back to the conservative default.
	require.Equal(t, TierSuspicious, ParseRiskTier("critical"))
	require.Equal(t, TierSuspicious, ParseRiskTier(""))
}

func TestItemEffectiveTier(t *testing.T) {
	t.Parallel()

	item := Item{OriginalTier: TierSafe}
	require.Equal(t, TierSafe, item.EffectiveTier())

	item.AssistedTier = TierDangerous
	require.Equal(t, TierDangerous, item.EffectiveTier())
}

func TestItemSignature(t *testing.T) {
	t.Parallel()

	base := Item{Path: "/tmp/a.log", Size: 10, ModTime: time.Unix(1000, 0)}
	require.Equal(t, base.Signature(), base.Signature())

	changed := base
	changed.Size = 11
	require.NotEqual(t, base.Signature(), changed.Signature())

	touched := base
	touched.ModTime = time.Unix(2000, 0)
	require.NotEqual(t, base.Signature(), touched.Signature())
}

func TestKindForTier(t *testing.T) {
	t.Parallel()

	require.Equal(t, BackupNone, KindForTier(TierSafe))
	require.Equal(t, BackupHardLink, KindForTier(TierSuspicious))
	require.Equal(t, BackupFullCopy, KindForTier(TierDangerous))
	// Unknown tiers are treated like suspicious.
	require.Equal(t, BackupHardLink, KindForTier("other"))
}

func TestComputeTotals(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals([]Item{
		{Size: 100, OriginalTier: TierSafe},
		{Size: 200, OriginalTier: TierSuspicious},
		{Size: 300, OriginalTier: TierSafe, AssistedTier: TierDangerous},
	})

	require.Equal(t, 3, totals.TotalItems)
	require.Equal(t, int64(600), totals.TotalSize)
	require.Equal(t, 1, totals.SafeItems)
	require.Equal(t, 1, totals.SuspiciousItems)
	require.Equal(t, 1, totals.DangerousItems)
}

func TestExecutionStatusTerminal(t *testing.T) {
	t.Parallel()

	for _, status := range []ExecutionStatus{StatusCompleted, StatusPartialSuccess, StatusFailed, StatusCancelled} {
		require.True(t, status.Terminal(), string(status))
	}
	for _, status := range []ExecutionStatus{StatusPending, StatusRunning} {
		require.False(t, status.Terminal(), string(status))
	}
}

func TestClassificationRecordExpired(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := ClassificationRecord{CreatedAt: created, TTL: time.Hour}

	require.False(t, record.Expired(created.Add(time.Hour)))
	require.True(t, record.Expired(created.Add(time.Hour+time.Nanosecond)))
}
