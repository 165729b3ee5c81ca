package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"go-disk-cleaner/internal/model"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func paths(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Path)
	}
	return out
}

func TestScannerScan(t *testing.T) {
	t.Parallel()

	t.Run("walks the tree up to the depth limit", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.log"), 10)
		writeFile(t, filepath.Join(root, "sub", "b.tmp"), 20)
		writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"), 30)

		items, err := New(Options{MaxDepth: 1}).Scan(context.Background(), root)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{
			filepath.Join(root, "a.log"),
			filepath.Join(root, "sub"),
			filepath.Join(root, "sub", "b.tmp"),
		}, paths(items))
	})

	t.Run("depth zero keeps only direct files", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.log"), 10)
		writeFile(t, filepath.Join(root, "sub", "b.tmp"), 20)

		items, err := New(Options{}).Scan(context.Background(), root)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{filepath.Join(root, "a.log")}, paths(items))
	})

	t.Run("symlinks are never reported", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.log"), 10)
		require.NoError(t, os.Symlink(filepath.Join(root, "a.log"), filepath.Join(root, "link.log")))

		items, err := New(Options{MaxDepth: 1}).Scan(context.Background(), root)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{filepath.Join(root, "a.log")}, paths(items))
	})

	t.Run("min size filters files but not directories", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "small.log"), 5)
		writeFile(t, filepath.Join(root, "big.log"), 500)
		require.NoError(t, os.Mkdir(filepath.Join(root, "empty"), 0o755))

		items, err := New(Options{MaxDepth: 1, MinSize: 100}).Scan(context.Background(), root)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{
			filepath.Join(root, "big.log"),
			filepath.Join(root, "empty"),
		}, paths(items))
	})

	t.Run("extension filter", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.log"), 10)
		writeFile(t, filepath.Join(root, "b.TMP"), 10)
		writeFile(t, filepath.Join(root, "c.db"), 10)

		items, err := New(Options{MaxDepth: 1, Extensions: []string{".log", ".tmp"}}).Scan(context.Background(), root)
		require.NoError(t, err)
		require.ElementsMatch(t, []string{
			filepath.Join(root, "a.log"),
			filepath.Join(root, "b.TMP"),
		}, paths(items))
	})

	t.Run("item cap stops the walk without error", func(t *testing.T) {
		root := t.TempDir()
		for _, name := range []string{"a", "b", "c", "d", "e"} {
			writeFile(t, filepath.Join(root, name+".log"), 10)
		}

		items, err := New(Options{MaxDepth: 1, MaxItems: 3}).Scan(context.Background(), root)
		require.NoError(t, err)
		require.Len(t, items, 3)
	})

	t.Run("file root yields a single item", func(t *testing.T) {
		root := t.TempDir()
		path := filepath.Join(root, "only.log")
		writeFile(t, path, 42)

		items, err := New(Options{}).Scan(context.Background(), path)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, path, items[0].Path)
		require.Equal(t, model.KindFile, items[0].Kind)
		require.Equal(t, ".log", items[0].Extension)
		require.Equal(t, int64(42), items[0].Size)
		require.NotEmpty(t, items[0].ID)
	})

	t.Run("missing root is an error", func(t *testing.T) {
		_, err := New(Options{}).Scan(context.Background(), filepath.Join(t.TempDir(), "absent"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestScannerScanMany(t *testing.T) {
	t.Parallel()

	first := t.TempDir()
	second := t.TempDir()
	writeFile(t, filepath.Join(first, "a.log"), 10)
	writeFile(t, filepath.Join(second, "b.log"), 10)

	// A bad root is logged and skipped, not fatal.
	items, err := New(Options{MaxDepth: 1}).ScanMany(context.Background(), []string{
		first,
		filepath.Join(first, "absent"),
		second,
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{
		filepath.Join(first, "a.log"),
		filepath.Join(second, "b.log"),
	}, paths(items))
}
