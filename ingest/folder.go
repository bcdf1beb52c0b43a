// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/danielhkuo/training-catalogue/models"
)

var (
	ErrRootNotFound = errors.New("folder not found")
	ErrNotDirectory = errors.New("not a directory")
)

// FolderSource walks a local mirror of the catalogue library.
type FolderSource struct {
	Root string
}

func (s FolderSource) Kind() string { return models.SourceFolder }

func (s FolderSource) Policy() Policy {
	return Policy{DepthRule: true, CountArchives: true, Archive: true}
}

// Walk emits every folder and file below Root. Entries that resolve
// outside Root through symlinks are reported as path traversal and skipped.
func (s FolderSource) Walk(ctx context.Context, stats *Stats, emit func(Entry) error) error {
	root, err := resolveRoot(s.Root)
	if err != nil {
		return err
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			stats.AddError(fmt.Sprintf("walk %s: %v", path, err))
			stats.Incomplete = true
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil || !within(rel) {
			stats.AddError("path traversal detected: " + path)
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				stats.AddError(fmt.Sprintf("resolve %s: %v", rel, err))
				return nil
			}
			if tr, err := filepath.Rel(root, target); err != nil || !within(tr) {
				stats.AddError("path traversal detected: " + rel)
				return nil
			}
			info, err := os.Stat(target)
			if err != nil {
				stats.AddError(fmt.Sprintf("stat %s: %v", rel, err))
				return nil
			}
			if info.IsDir() {
				// Linked directories are not followed.
				return nil
			}
		}

		if d.IsDir() {
			return emit(Entry{RelativePath: rel, Name: d.Name(), IsFolder: true})
		}

		full := path
		return emit(Entry{
			RelativePath: rel,
			Name:         d.Name(),
			Open:         func() (io.ReadCloser, error) { return os.Open(full) },
		})
	})
}

// resolveRoot makes root absolute, resolves symlinks and checks that it is
// an existing directory.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", root, err)
	}
	return resolved, nil
}

// within reports whether a path relative to the root stays inside it.
func within(rel string) bool {
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
