// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"context"
	"io"
	"sort"
	"strings"
)

// Entry is one item yielded by a Source.
type Entry struct {
	// RelativePath is the item's full path below the source root, with
	// forward slashes and no trailing slash.
	RelativePath string
	Name         string
	IsFolder     bool
	// ChildCount is the number of direct children reported for a folder.
	ChildCount  int
	DriveItemID string
	WebURL      string
	// Open returns the file's content. Nil for folders.
	Open func() (io.ReadCloser, error)
	// InScope re-checks that a remote item belongs to the catalogue library
	// before a row is built from it. Nil for local sources.
	InScope func() error
}

// Parent returns the path of the folder holding the entry.
func (e Entry) Parent() string {
	i := strings.LastIndex(e.RelativePath, "/")
	if i < 0 {
		return ""
	}
	return e.RelativePath[:i]
}

// Policy is how the planner treats a source's entries.
type Policy struct {
	// DepthRule applies the leaf-container depth rule to files and links.txt.
	DepthRule bool
	// FolderContainers turns folders directly under a training type folder
	// into folder containers.
	FolderContainers bool
	// CountArchives opens .zip files to fill contents_count.
	CountArchives bool
	// Archive archives rows the source did not report. Only sources that
	// see the whole tree may set it.
	Archive bool
}

// Source walks a folder tree and emits every entry it finds.
type Source interface {
	// Kind is the value written to the source column.
	Kind() string
	Policy() Policy
	// Walk emits entries in any order. A returned error aborts the sync
	// with no writes. Recoverable problems are recorded in stats; a
	// subtree that could not be listed must set stats.Incomplete.
	Walk(ctx context.Context, stats *Stats, emit func(Entry) error) error
}

// Skip reasons
const (
	SkipExcluded     = "excluded"
	SkipDepth        = "depth"
	SkipNoURLs       = "no_urls"
	SkipDownloadFail = "download_fail"
)

// Stats counts what a walk saw.
type Stats struct {
	FoldersScanned  int            `json:"folders_scanned"`
	FilesScanned    int            `json:"files_scanned"`
	LinksCreated    int            `json:"links_created"`
	Skipped         map[string]int `json:"skipped"`
	ScopeViolations int            `json:"scope_violations"`
	Errors          []string       `json:"errors"`
	// Incomplete is set when part of the tree could not be listed.
	// Archival is skipped for incomplete walks.
	Incomplete bool `json:"incomplete"`
}

func newStats() *Stats {
	return &Stats{Skipped: map[string]int{}, Errors: []string{}}
}

func (s *Stats) skip(reason string) {
	s.Skipped[reason]++
}

// AddError records a recoverable error.
func (s *Stats) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// SkippedTotal is the sum of all skip reasons.
func (s *Stats) SkippedTotal() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
