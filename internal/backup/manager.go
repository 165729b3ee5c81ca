// Package backup makes every deletion reversible in proportion to its
// risk, then performs the deletion. The backup store directory is owned
// exclusively by this package.
package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
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

const (
	hardLinkDir = "hardlinks"
	fullCopyDir = "full"
)

// RecordStore persists BackupRecords. A record must be durable before the
// paired delete proceeds. Implemented by repository.BackupRepository.
type RecordStore interface {
	Create(ctx context.Context, record model.BackupRecord) error
	FindActiveByItemID(ctx context.Context, itemID string) (model.BackupRecord, error)
}

// Manager implements the tier-proportional protect-then-delete policy:
// Safe deletes directly, Suspicious hard-links into the store first,
// Dangerous takes a verified full copy first.
type Manager struct {
	root  string
	store RecordStore
}

func NewManager(root string, store RecordStore) (*Manager, error) {
	for _, dir := range []string{root, filepath.Join(root, hardLinkDir), filepath.Join(root, fullCopyDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("prepare backup store %q: %w", dir, err)
		}
	}
	return &Manager{root: root, store: store}, nil
}

// Root returns the backup store root directory.
func (m *Manager) Root() string {
	return m.root
}

// Protect creates and durably records the backup an item's effective tier
// demands, without touching the original. Safe items return a zero record
// and no store row. Re-protecting an item that already has an active
// record returns that record, so a re-submitted plan never duplicates
// backups.
func (m *Manager) Protect(ctx context.Context, planID string, item model.Item) (model.BackupRecord, error) {
	kind := model.KindForTier(item.EffectiveTier())
	if kind == model.BackupNone {
		return model.BackupRecord{}, nil
	}

	if existing, err := m.store.FindActiveByItemID(ctx, item.ID); err == nil {
		slog.Debug("reusing existing backup", "item_id", item.ID, "backup_id", existing.ID)
		return existing, nil
	} else if !errors.Is(err, model.ErrBackupNotFound) {
		return model.BackupRecord{}, fmt.Errorf("%w: backup index lookup: %v", model.ErrBackupVerifyFailed, err)
	}

	info, err := os.Lstat(item.Path)
	if err != nil {
		// Surface the original stat error so the engine can classify
		// NotFound as a skip rather than a backup failure.
		return model.BackupRecord{}, err
	}

	var (
		backupPath string
		size       int64
		checksum   string
	)

	switch {
	case kind == model.BackupHardLink && !info.IsDir():
		backupPath = filepath.Join(m.root, hardLinkDir, backupName(item))
		if linkErr := os.Link(item.Path, backupPath); linkErr != nil {
			// Cross-device or unsupported filesystem: degrade to a copy.
			slog.Warn("hard link unavailable, falling back to full copy", "path", item.Path, "error", linkErr)
			kind = model.BackupFullCopy
		} else {
			size = info.Size()
		}
	case kind == model.BackupHardLink && info.IsDir():
		// Directories cannot be hard-linked; a full copy is the
		// equivalent protection.
		kind = model.BackupFullCopy
	}

	if kind == model.BackupFullCopy {
		backupPath = filepath.Join(m.root, fullCopyDir, backupName(item))
		size, checksum, err = m.fullCopy(ctx, item.Path, backupPath, info)
		if err != nil {
			_ = os.RemoveAll(backupPath)
			return model.BackupRecord{}, err
		}
	}

	record := model.BackupRecord{
		ID:           uuid.NewString(),
		ItemID:       item.ID,
		PlanID:       planID,
		OriginalPath: item.Path,
		Kind:         kind,
		BackupPath:   backupPath,
		Size:         size,
		Checksum:     checksum,
		Tier:         item.EffectiveTier(),
		CreatedAt:    time.Now().UTC(),
	}

	// The record row is the durability point: no row, no delete.
	if err := m.store.Create(ctx, record); err != nil {
		_ = os.RemoveAll(backupPath)
		return model.BackupRecord{}, fmt.Errorf("%w: persist backup record: %v", model.ErrBackupVerifyFailed, err)
	}
	metrics.BackupsCreated.WithLabelValues(string(kind)).Inc()
	return record, nil
}

// Remove deletes the original item. Called only after Protect succeeded
// (or for Safe items, which need no protection).
func (m *Manager) Remove(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Lstat(item.Path)
	if err != nil {
		return err
	}

	if info.IsDir() {
		return os.RemoveAll(item.Path)
	}

	if err := os.Remove(item.Path); err != nil {
		// Read-only files are common in the trees this tool targets.
		if errors.Is(err, os.ErrPermission) {
			if chmodErr := os.Chmod(item.Path, info.Mode()|0o200); chmodErr == nil {
				return os.Remove(item.Path)
			}
		}
		return err
	}
	return nil
}

// ProtectThenDelete runs the full per-item sequence: backup per policy,
// verify, persist the record, then delete. A delete failure after a
// durable backup returns the valid record together with the error; the
// item stays recoverable as if it were already removed.
func (m *Manager) ProtectThenDelete(ctx context.Context, planID string, item model.Item) (model.BackupRecord, error) {
	record, err := m.Protect(ctx, planID, item)
	if err != nil {
		return model.BackupRecord{}, err
	}
	if err := m.Remove(ctx, item); err != nil {
		return record, err
	}
	return record, nil
}

// fullCopy copies src into dst and verifies the result. Files carry a
// SHA-256 checksum; directories are verified by file count and byte
// total. The copy is flushed to stable storage before returning.
func (m *Manager) fullCopy(ctx context.Context, src string, dst string, info os.FileInfo) (int64, string, error) {
	if info.IsDir() {
		wantFiles, wantBytes, err := copyTree(ctx, src, dst)
		if err != nil {
			return 0, "", fmt.Errorf("%w: copy directory: %v", model.ErrBackupVerifyFailed, err)
		}
		gotFiles, gotBytes, err := measureTree(dst)
		if err != nil || gotFiles != wantFiles || gotBytes != wantBytes {
			return 0, "", fmt.Errorf("%w: directory copy mismatch (files %d/%d, bytes %d/%d)",
				model.ErrBackupVerifyFailed, gotFiles, wantFiles, gotBytes, wantBytes)
		}
		return wantBytes, "", nil
	}

	checksum, written, err := copyFileChecksum(src, dst, info.Mode())
	if err != nil {
		return 0, "", fmt.Errorf("%w: copy file: %v", model.ErrBackupVerifyFailed, err)
	}
	if written != info.Size() {
		return 0, "", fmt.Errorf("%w: size mismatch (%d != %d)", model.ErrBackupVerifyFailed, written, info.Size())
	}

	verify, _, err := hashFile(dst)
	if err != nil || verify != checksum {
		return 0, "", fmt.Errorf("%w: checksum mismatch after copy", model.ErrBackupVerifyFailed)
	}
	return written, checksum, nil
}

// backupName builds a store-local name from the item id and a short path
// hash, never reusing the original path verbatim.
func backupName(item model.Item) string {
	sum := sha256.Sum256([]byte(item.ID + "|" + item.Path))
	base := filepath.Base(item.Path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%s%s", stem, hex.EncodeToString(sum[:8]), ext)
}

func copyFileChecksum(src string, dst string, mode os.FileMode) (string, int64, error) {
	input, err := os.Open(src)
	if err != nil {
		return "", 0, err
	}
	defer input.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", 0, err
	}

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

func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	hasher := sha256.New()
	n, err := io.Copy(hasher, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

// copyTree copies a directory recursively, skipping symlinks, and returns
// the file count and byte total it wrote.
func copyTree(ctx context.Context, src string, dst string) (int, int64, error) {
	files := 0
	var bytes int64

	err := filepath.WalkDir(src, func(current string, entry os.DirEntry, walkErr error) error {
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
		target := filepath.Join(dst, rel)

		if entry.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm())
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		_, written, err := copyFileChecksum(current, target, info.Mode())
		if err != nil {
			return err
		}
		files++
		bytes += written
		return nil
	})
	return files, bytes, err
}

func measureTree(root string) (int, int64, error) {
	files := 0
	var bytes int64
	err := filepath.WalkDir(root, func(current string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || entry.Type()&os.ModeSymlink != 0 {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		files++
		bytes += info.Size()
		return nil
	})
	return files, bytes, err
}
