// Package recovery restores previously deleted items from the backup
// store. Every restore attempt is logged, successful or not.
package recovery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"go-disk-cleaner/internal/metrics"
	"go-disk-cleaner/internal/model"
)

// BackupIndex is the backup record store as recovery sees it. Implemented
// by repository.BackupRepository.
type BackupIndex interface {
	FindByID(ctx context.Context, id string) (model.BackupRecord, error)
	List(ctx context.Context, filter model.BackupFilter) ([]model.BackupRecord, error)
	MarkRestored(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListExpired(ctx context.Context, cutoff time.Time) ([]model.BackupRecord, error)
	Stats(ctx context.Context) (model.BackupStats, error)
}

// AttemptLog persists one RecoveryRecord per restore attempt.
type AttemptLog interface {
	Create(ctx context.Context, record model.RecoveryRecord) error
}

// Gate reports whether any plan is executing. Retention cleanup must not
// race a running execution that may still be writing backups.
type Gate interface {
	ActiveCount() int
}

type Manager struct {
	index    BackupIndex
	attempts AttemptLog
	gate     Gate
	now      func() time.Time
}

func NewManager(index BackupIndex, attempts AttemptLog, gate Gate) *Manager {
	return &Manager{index: index, attempts: attempts, gate: gate, now: time.Now}
}

// Restore puts one backed-up item back on disk. targetPath overrides the
// recorded original path when non-empty. If the target already exists the
// restored copy gets a timestamp suffix instead of overwriting; the
// caller learns the final path from the returned record.
func (m *Manager) Restore(ctx context.Context, backupID string, targetPath string) (model.RecoveryRecord, error) {
	record, err := m.index.FindByID(ctx, backupID)
	if err != nil {
		return model.RecoveryRecord{}, err
	}
	if record.RestoredAt != nil {
		return model.RecoveryRecord{}, model.ErrAlreadyRestored
	}

	target := record.OriginalPath
	if targetPath != "" {
		target = targetPath
	}
	if _, statErr := os.Lstat(target); statErr == nil {
		target = timestampedPath(target, m.now())
	}

	attempt := model.RecoveryRecord{
		ID:         uuid.NewString(),
		BackupID:   record.ID,
		ItemID:     record.ItemID,
		TargetPath: target,
		Status:     model.RecoveryPending,
		CreatedAt:  m.now().UTC(),
	}

	if err := m.restoreContent(ctx, record, target); err != nil {
		attempt.Status = model.RecoveryFailed
		attempt.Message = err.Error()
		m.logAttempt(ctx, attempt)
		return attempt, err
	}

	restoredAt := m.now().UTC()
	if err := m.index.MarkRestored(ctx, record.ID, restoredAt); err != nil {
		// Content is back on disk; the stale index row only costs a
		// duplicate-restore guard, so report partial rather than undo.
		attempt.Status = model.RecoveryPartial
		attempt.Message = fmt.Sprintf("restored but index update failed: %v", err)
		m.logAttempt(ctx, attempt)
		return attempt, nil
	}

	// The backup payload served its purpose; reclaim the store space.
	if record.BackupPath != "" {
		if err := os.RemoveAll(record.BackupPath); err != nil {
			slog.Warn("restored backup payload left behind", "backup_id", record.ID, "error", err)
		}
	}

	attempt.Status = model.RecoverySuccess
	m.logAttempt(ctx, attempt)
	metrics.BackupsRestored.Inc()
	slog.Info("backup restored", "backup_id", record.ID, "target", target)
	return attempt, nil
}

// RestoreBatch restores each backup independently and keeps going on
// failure; the stats tell the caller how the batch fared.
func (m *Manager) RestoreBatch(ctx context.Context, backupIDs []string, targetPath string) (model.RecoveryStats, []model.RecoveryRecord) {
	stats := model.RecoveryStats{Total: len(backupIDs)}
	records := make([]model.RecoveryRecord, 0, len(backupIDs))

	for _, id := range backupIDs {
		if ctx.Err() != nil {
			stats.Failed += stats.Total - len(records)
			break
		}

		record, err := m.Restore(ctx, id, targetPath)
		records = append(records, record)

		switch {
		case err != nil:
			stats.Failed++
		case record.Status == model.RecoveryPartial:
			stats.Partial++
		default:
			stats.Succeeded++
			if backup, lookupErr := m.index.FindByID(ctx, id); lookupErr == nil {
				stats.RestoredSize += backup.Size
			}
		}
	}
	return stats, records
}

// ListBackups exposes the backup index for browsing before a restore.
func (m *Manager) ListBackups(ctx context.Context, filter model.BackupFilter) ([]model.BackupRecord, error) {
	return m.index.List(ctx, filter)
}

// Stats summarises the backup store.
func (m *Manager) Stats(ctx context.Context) (model.BackupStats, error) {
	return m.index.Stats(ctx)
}

// CleanupExpired removes backups older than the retention window, payload
// and index row both. It refuses to run while any plan is executing.
func (m *Manager) CleanupExpired(ctx context.Context, retention time.Duration) (int, int64, error) {
	if m.gate != nil && m.gate.ActiveCount() > 0 {
		return 0, 0, model.ErrExecutionInProgress
	}
	if retention <= 0 {
		return 0, 0, fmt.Errorf("%w: retention must be positive", model.ErrInvalidInput)
	}

	cutoff := m.now().Add(-retention)
	expired, err := m.index.ListExpired(ctx, cutoff)
	if err != nil {
		return 0, 0, err
	}

	removed := 0
	var freed int64
	for _, record := range expired {
		if ctx.Err() != nil {
			return removed, freed, ctx.Err()
		}
		if record.BackupPath != "" {
			if err := os.RemoveAll(record.BackupPath); err != nil {
				slog.Warn("expired backup payload not removed", "backup_id", record.ID, "error", err)
				continue
			}
		}
		if err := m.index.Delete(ctx, record.ID); err != nil {
			slog.Warn("expired backup row not removed", "backup_id", record.ID, "error", err)
			continue
		}
		removed++
		freed += record.Size
	}

	slog.Info("backup retention sweep done", "removed", removed, "freed", freed)
	return removed, freed, nil
}

func (m *Manager) logAttempt(ctx context.Context, attempt model.RecoveryRecord) {
	if m.attempts == nil {
		return
	}
	if err := m.attempts.Create(ctx, attempt); err != nil {
		slog.Warn("recovery attempt not logged", "backup_id", attempt.BackupID, "error", err)
	}
}

// restoreContent moves the payload back to the target path and verifies
// it the same way the backup was verified.
func (m *Manager) restoreContent(ctx context.Context, record model.BackupRecord, target string) error {
	if record.BackupPath == "" {
		return fmt.Errorf("%w: backup %s has no payload", model.ErrBackupNotFound, record.ID)
	}

	info, err := os.Lstat(record.BackupPath)
	if err != nil {
		return fmt.Errorf("backup payload missing: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	if info.IsDir() {
		return copyTree(ctx, record.BackupPath, target)
	}

	checksum, written, err := copyFile(record.BackupPath, target, info.Mode())
	if err != nil {
		return err
	}
	if record.Checksum != "" && checksum != record.Checksum {
		_ = os.Remove(target)
		return fmt.Errorf("%w: restored checksum mismatch", model.ErrBackupVerifyFailed)
	}
	if record.Checksum == "" && record.Kind == model.BackupHardLink && written != info.Size() {
		_ = os.Remove(target)
		return fmt.Errorf("%w: restored size mismatch", model.ErrBackupVerifyFailed)
	}
	return nil
}

// timestampedPath inserts a timestamp before the extension so a restore
// never overwrites whatever now occupies the original path.
func timestampedPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return fmt.Sprintf("%s_%s%s", stem, now.Format("20060102T150405"), ext)
}

func copyFile(src string, dst string, mode os.FileMode) (string, int64, error) {
	input, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer input.Close()

	output, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return "", 0, err
	}

	hasher := sha256.New()
	written, copyErr := io.Copy(io.MultiWriter(output, hasher), input)
	syncErr := output.Sync()
	closeErr := output.Close()
	if copyErr != nil {
		return "", 0, copyErr
	}
	if syncErr != nil {
		return "", 0, syncErr
	}
	if closeErr != nil {
		return "", 0, closeErr
	}
	return hex.EncodeToString(hasher.Sum(nil)), written, nil
}

func copyTree(ctx context.Context, src string, dst string) error {
	return filepath.WalkDir(src, func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, current)
		if err != nil {
			return err
		}
		targetPath := filepath.Join(dst, rel)

		if entry.Type()&os.ModeSymlink != 0 {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return os.MkdirAll(targetPath, info.Mode().Perm())
		}
		_, _, err = copyFile(current, targetPath, info.Mode())
		return err
	})
}
