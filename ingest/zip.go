// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danielhkuo/training-catalogue/models"
	"github.com/danielhkuo/training-catalogue/taxonomy"
)

var ErrInvalidArchive = errors.New("invalid zip archive")

// ZipSource reads an uploaded export of the catalogue library. The
// archive's top-level folder is the library root and is stripped.
//
// Every file becomes a resource regardless of depth, and a ZIP never
// archives rows it does not contain.
type ZipSource struct {
	Reader io.ReaderAt
	Size   int64
}

func (s ZipSource) Kind() string { return models.SourceZip }

func (s ZipSource) Policy() Policy {
	return Policy{}
}

func (s ZipSource) Walk(ctx context.Context, stats *Stats, emit func(Entry) error) error {
	zr, err := zip.NewReader(s.Reader, s.Size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := strings.ReplaceAll(f.Name, `\`, "/")
		isDir := strings.HasSuffix(name, "/") || f.FileInfo().IsDir()

		parts := taxonomy.Segments(name)
		if len(parts) <= 1 {
			continue
		}
		if strings.HasPrefix(name, "/") || hasDotDot(parts) {
			stats.AddError("path traversal detected: " + f.Name)
			continue
		}
		rel := strings.Join(parts[1:], "/")

		if isDir {
			if err := emit(Entry{RelativePath: rel, Name: parts[len(parts)-1], IsFolder: true}); err != nil {
				return err
			}
			continue
		}

		zf := f
		err := emit(Entry{
			RelativePath: rel,
			Name:         parts[len(parts)-1],
			Open:         func() (io.ReadCloser, error) { return zf.Open() },
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// countArchiveFiles counts the non-directory entries of a ZIP archive.
func countArchiveFiles(r io.ReaderAt, size int64) (int, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, "/") && !f.FileInfo().IsDir() {
			n++
		}
	}
	return n, nil
}

func hasDotDot(parts []string) bool {
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}
