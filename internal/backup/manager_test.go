package backup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-disk-cleaner/internal/model"
)

type fakeRecordStore struct {
	records   map[string]model.BackupRecord // keyed by item id
	createErr error
	creates   int
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: map[string]model.BackupRecord{}}
}

func (f *fakeRecordStore) Create(_ context.Context, record model.BackupRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.creates++
	f.records[record.ItemID] = record
	return nil
}

func (f *fakeRecordStore) FindActiveByItemID(_ context.Context, itemID string) (model.BackupRecord, error) {
	record, ok := f.records[itemID]
	if !ok {
		return model.BackupRecord{}, model.ErrBackupNotFound
	}
	return record, nil
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func newTestManager(t *testing.T, store RecordStore) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "backups"), store)
	require.NoError(t, err)
	return m
}

func TestManagerProtect(t *testing.T) {
	t.Parallel()

	t.Run("safe items need no backup and no record", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		record, err := m.Protect(context.Background(), "plan-1", model.Item{
			ID:           "item-1",
			Path:         filepath.Join(t.TempDir(), "absent.log"),
			OriginalTier: model.TierSafe,
		})

		require.NoError(t, err)
		require.Empty(t, record.ID)
		require.Equal(t, 0, store.creates)
	})

	t.Run("suspicious files are hard linked", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "notes.db")
		writeFile(t, src, "suspicious content")

		item := model.Item{ID: "item-1", Path: src, OriginalTier: model.TierSuspicious}
		record, err := m.Protect(context.Background(), "plan-1", item)
		require.NoError(t, err)
		require.Equal(t, model.BackupHardLink, record.Kind)
		require.NotEmpty(t, record.BackupPath)
		require.Empty(t, record.Checksum)

		srcInfo, err := os.Stat(src)
		require.NoError(t, err)
		linkInfo, err := os.Stat(record.BackupPath)
		require.NoError(t, err)
		require.True(t, os.SameFile(srcInfo, linkInfo))
	})

	t.Run("dangerous files get a verified full copy", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "report.docx")
		writeFile(t, src, "dangerous content")

		item := model.Item{ID: "item-1", Path: src, OriginalTier: model.TierDangerous}
		record, err := m.Protect(context.Background(), "plan-1", item)
		require.NoError(t, err)
		require.Equal(t, model.BackupFullCopy, record.Kind)
		require.Equal(t, sha256Hex("dangerous content"), record.Checksum)
		require.Equal(t, int64(len("dangerous content")), record.Size)

		copied, err := os.ReadFile(record.BackupPath)
		require.NoError(t, err)
		require.Equal(t, "dangerous content", string(copied))
	})

	t.Run("suspicious directories fall back to a full copy", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "appdata")
		writeFile(t, filepath.Join(src, "a.txt"), "alpha")
		writeFile(t, filepath.Join(src, "nested", "b.txt"), "beta")

		item := model.Item{ID: "item-1", Path: src, Kind: model.KindDirectory, OriginalTier: model.TierSuspicious}
		record, err := m.Protect(context.Background(), "plan-1", item)
		require.NoError(t, err)
		require.Equal(t, model.BackupFullCopy, record.Kind)
		require.Equal(t, int64(len("alpha")+len("beta")), record.Size)

		copied, err := os.ReadFile(filepath.Join(record.BackupPath, "nested", "b.txt"))
		require.NoError(t, err)
		require.Equal(t, "beta", string(copied))
	})

	t.Run("re-protecting an item reuses the existing backup", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "notes.db")
		writeFile(t, src, "content")

		item := model.Item{ID: "item-1", Path: src, OriginalTier: model.TierSuspicious}
		first, err := m.Protect(context.Background(), "plan-1", item)
		require.NoError(t, err)

		second, err := m.Protect(context.Background(), "plan-1", item)
		require.NoError(t, err)
		require.Equal(t, first.ID, second.ID)
		require.Equal(t, 1, store.creates)
	})

	t.Run("missing original surfaces the stat error", func(t *testing.T) {
		m := newTestManager(t, newFakeRecordStore())

		_, err := m.Protect(context.Background(), "plan-1", model.Item{
			ID:           "item-1",
			Path:         filepath.Join(t.TempDir(), "gone.db"),
			OriginalTier: model.TierSuspicious,
		})

		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("record persistence failure removes the payload", func(t *testing.T) {
		store := newFakeRecordStore()
		store.createErr = errors.New("connection refused")
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "notes.db")
		writeFile(t, src, "content")

		_, err := m.Protect(context.Background(), "plan-1", model.Item{
			ID: "item-1", Path: src, OriginalTier: model.TierSuspicious,
		})
		require.ErrorIs(t, err, model.ErrBackupVerifyFailed)

		// No stray payloads left in the store.
		entries, err := os.ReadDir(filepath.Join(m.Root(), hardLinkDir))
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("assisted tier drives the backup policy", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "blob.bin")
		writeFile(t, src, "payload")

		// Rules said safe, the assisted opinion said dangerous: the
		// stricter effective tier wins.
		item := model.Item{ID: "item-1", Path: src, OriginalTier: model.TierSafe, AssistedTier: model.TierDangerous}
		record, err := m.Protect(context.Background(), "plan-1", item)
		require.NoError(t, err)
		require.Equal(t, model.BackupFullCopy, record.Kind)
		require.Equal(t, model.TierDangerous, record.Tier)
	})
}

func TestManagerRemove(t *testing.T) {
	t.Parallel()

	t.Run("removes files", func(t *testing.T) {
		m := newTestManager(t, newFakeRecordStore())
		src := filepath.Join(t.TempDir(), "junk.tmp")
		writeFile(t, src, "x")

		require.NoError(t, m.Remove(context.Background(), model.Item{Path: src}))
		require.NoFileExists(t, src)
	})

	t.Run("removes directories recursively", func(t *testing.T) {
		m := newTestManager(t, newFakeRecordStore())
		src := filepath.Join(t.TempDir(), "junkdir")
		writeFile(t, filepath.Join(src, "a", "b.txt"), "x")

		require.NoError(t, m.Remove(context.Background(), model.Item{Path: src, Kind: model.KindDirectory}))
		require.NoDirExists(t, src)
	})

	t.Run("missing file surfaces not-exist", func(t *testing.T) {
		m := newTestManager(t, newFakeRecordStore())

		err := m.Remove(context.Background(), model.Item{Path: filepath.Join(t.TempDir(), "gone")})
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		m := newTestManager(t, newFakeRecordStore())
		src := filepath.Join(t.TempDir(), "junk.tmp")
		writeFile(t, src, "x")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, m.Remove(ctx, model.Item{Path: src}), context.Canceled)
		require.FileExists(t, src)
	})
}

func TestManagerProtectThenDelete(t *testing.T) {
	t.Parallel()

	t.Run("backs up then deletes", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "notes.db")
		writeFile(t, src, "content")

		record, err := m.ProtectThenDelete(context.Background(), "plan-1", model.Item{
			ID: "item-1", Path: src, OriginalTier: model.TierSuspicious,
		})
		require.NoError(t, err)
		require.NotEmpty(t, record.ID)
		require.NoFileExists(t, src)
		require.FileExists(t, record.BackupPath)
	})

	t.Run("delete failure still returns the durable record", func(t *testing.T) {
		store := newFakeRecordStore()
		m := newTestManager(t, store)

		src := filepath.Join(t.TempDir(), "notes.db")
		writeFile(t, src, "content")

		item := model.Item{ID: "item-1", Path: src, OriginalTier: model.TierSuspicious}

		ctx, cancel := context.WithCancel(context.Background())
		record, err := m.Protect(ctx, "plan-1", item)
		require.NoError(t, err)
		cancel()

		got, err := m.ProtectThenDelete(ctx, "plan-1", item)
		require.Error(t, err)
		require.Equal(t, record.ID, got.ID)
		require.FileExists(t, src)
	})
}
