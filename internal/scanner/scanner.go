// Package scanner walks candidate directories and turns their entries
// into cleanup items. It never follows or reports symlinks.
package scanner

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"go-disk-cleaner/internal/model"
)

// Options bound a scan. MaxDepth counts levels below the root: 0 scans
// only the root's direct entries.
type Options struct {
	MaxDepth   int
	MaxItems   int
	MinSize    int64
	Extensions []string // lowercase, with leading dot; empty means all
}

type Scanner struct {
	opts Options
}

func New(opts Options) *Scanner {
	if opts.MaxDepth < 0 {
		opts.MaxDepth = 0
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = 10000
	}
	return &Scanner{opts: opts}
}

// Scan walks root and returns cleanup candidates. Unreadable entries are
// logged and skipped, never fatal; a missing root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]model.Item, error) {
	info, err := os.Lstat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		item, ok := s.toItem(root, info)
		if !ok {
			return []model.Item{}, nil
		}
		return []model.Item{item}, nil
	}

	items := make([]model.Item, 0)
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			slog.Debug("scan entry skipped", "path", path, "error", walkErr)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if len(items) >= s.opts.MaxItems {
			return fs.SkipAll
		}

		depth := strings.Count(strings.TrimPrefix(path, root), string(filepath.Separator))
		if entry.IsDir() && depth > s.opts.MaxDepth {
			return fs.SkipDir
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		entryInfo, err := entry.Info()
		if err != nil {
			slog.Debug("scan stat failed", "path", path, "error", err)
			return nil
		}
		if item, ok := s.toItem(path, entryInfo); ok {
			items = append(items, item)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.SkipAll) {
		return nil, err
	}
	return items, nil
}

// ScanMany runs Scan over each root and concatenates the results,
// stopping at the global item cap.
func (s *Scanner) ScanMany(ctx context.Context, roots []string) ([]model.Item, error) {
	items := make([]model.Item, 0)
	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return items, err
		}
		found, err := s.Scan(ctx, root)
		if err != nil {
			slog.Warn("scan root failed", "root", root, "error", err)
			continue
		}
		items = append(items, found...)
		if len(items) >= s.opts.MaxItems {
			items = items[:s.opts.MaxItems]
			break
		}
	}
	return items, nil
}

func (s *Scanner) toItem(path string, info fs.FileInfo) (model.Item, bool) {
	kind := model.KindFile
	if info.IsDir() {
		kind = model.KindDirectory
	}

	ext := strings.ToLower(filepath.Ext(path))
	if kind == model.KindFile {
		if info.Size() < s.opts.MinSize {
			return model.Item{}, false
		}
		if len(s.opts.Extensions) > 0 && !contains(s.opts.Extensions, ext) {
			return model.Item{}, false
		}
	}

	return model.Item{
		ID:        uuid.NewString(),
		Path:      path,
		Size:      info.Size(),
		Kind:      kind,
		Extension: ext,
		ModTime:   info.ModTime(),
	}, true
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
