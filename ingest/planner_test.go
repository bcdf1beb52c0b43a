// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielhkuo/training-catalogue/taxonomy"
)

const l3 = "Sales/Field/01_Onboarding/04_Video on Demand"

func fileEntry(path, content string) Entry {
	i := strings.LastIndex(path, "/")
	return Entry{
		RelativePath: path,
		Name:         path[i+1:],
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func folderEntry(path string, children int) Entry {
	i := strings.LastIndex(path, "/")
	return Entry{RelativePath: path, Name: path[i+1:], IsFolder: true, ChildCount: children}
}

func planAll(policy Policy, entries ...Entry) (*Planner, *Stats) {
	stats := newStats()
	p := NewPlanner("folder", policy, "2025-03-01T09:00:00.000000Z", stats)
	for _, e := range entries {
		p.Add(e)
	}
	return p, stats
}

func paths(p *Planner) []string {
	out := []string{}
	for _, r := range p.Rows() {
		out = append(out, r.RelativePath)
	}
	return out
}

func TestPlannerDepthRule(t *testing.T) {
	p, stats := planAll(Policy{DepthRule: true},
		fileEntry("Sales/readme.pdf", ""),
		fileEntry("Sales/Field/01_Onboarding/notes.pdf", ""),
		fileEntry(l3+"/intro.mp4", ""),
		fileEntry(l3+"/Module 1/part1.mp4", ""),
		fileEntry(l3+"/desktop.ini", ""),
		fileEntry(l3+"/Thumbs.db", ""),
	)

	want := []string{l3 + "/intro.mp4", l3 + "/Module 1/part1.mp4"}
	if diff := cmp.Diff(want, paths(p)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if stats.Skipped[SkipDepth] != 2 {
		t.Errorf("skipped depth = %d, want 2", stats.Skipped[SkipDepth])
	}
	if stats.Skipped[SkipExcluded] != 2 {
		t.Errorf("skipped excluded = %d, want 2", stats.Skipped[SkipExcluded])
	}
	if stats.FilesScanned != 4 {
		t.Errorf("files scanned = %d, want 4", stats.FilesScanned)
	}
}

func TestPlannerWithoutDepthRule(t *testing.T) {
	p, _ := planAll(Policy{},
		fileEntry("Sales/readme.pdf", ""),
		fileEntry("Sales/instructions.txt", ""),
	)
	if diff := cmp.Diff([]string{"Sales/readme.pdf"}, paths(p)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPlannerTaxonomy(t *testing.T) {
	p, _ := planAll(Policy{DepthRule: true}, fileEntry(l3+"/intro.mp4", ""))
	rows := p.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	r := rows[0]

	if r.PrimaryDepartment != "Sales" || r.SubDepartment != "Field" {
		t.Errorf("department = %q/%q", r.PrimaryDepartment, r.SubDepartment)
	}
	if r.Bucket != taxonomy.BucketOnboarding {
		t.Errorf("bucket = %q, want %q", r.Bucket, taxonomy.BucketOnboarding)
	}
	if r.ContainerType != taxonomy.TypeFile || r.ResourceCount != 1 {
		t.Errorf("type/count = %q/%d", r.ContainerType, r.ResourceCount)
	}
	if r.ContainerKey != taxonomy.ContainerKey("", l3+"/intro.mp4", taxonomy.TypeFile) {
		t.Errorf("unexpected key %q", r.ContainerKey)
	}
	if r.LastSeen != "2025-03-01T09:00:00.000000Z" {
		t.Errorf("last seen = %q", r.LastSeen)
	}
	if diff := cmp.Diff([]string{"Sales"}, p.Departments()); diff != "" {
		t.Errorf("departments mismatch (-want +got):\n%s", diff)
	}
}

func TestPlannerLinksExpansion(t *testing.T) {
	content := "# course links\nhttps://a.example.com\n\nwww.b.example.com\nnot a url\nftp://c.example.com\n"
	p, stats := planAll(Policy{DepthRule: true},
		fileEntry(l3+"/links.txt", content),
		fileEntry(l3+"/Module 1/LINKS.TXT", "https://deep.example.com"),
		fileEntry("Ops/Core/Upskilling/Document/links.txt", "# nothing here\n"),
	)

	rows := p.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2: %v", len(rows), paths(p))
	}
	for _, r := range rows {
		if r.ContainerType != taxonomy.TypeLink || r.ValidLinkCount != 1 || r.WebURL != r.DisplayName {
			t.Errorf("bad link row %+v", r)
		}
		if r.ContainerKey != taxonomy.LinkKey(l3, r.WebURL) {
			t.Errorf("key %q not derived from parent and url", r.ContainerKey)
		}
		if r.RelativePath != taxonomy.LinkRelativePath(l3, r.WebURL) {
			t.Errorf("path %q", r.RelativePath)
		}
	}
	if rows[1].WebURL != "https://www.b.example.com" {
		t.Errorf("www url = %q, want https prefix", rows[1].WebURL)
	}

	if stats.LinksCreated != 2 {
		t.Errorf("links created = %d, want 2", stats.LinksCreated)
	}
	if stats.Skipped[SkipNoURLs] != 1 {
		t.Errorf("skipped no urls = %d, want 1", stats.Skipped[SkipNoURLs])
	}
	if stats.Skipped[SkipDepth] != 1 {
		t.Errorf("nested links.txt should fail the depth rule, skipped = %d", stats.Skipped[SkipDepth])
	}
}

func TestPlannerLinksReadFailure(t *testing.T) {
	e := Entry{
		RelativePath: l3 + "/links.txt",
		Name:         "links.txt",
		Open:         func() (io.ReadCloser, error) { return nil, errors.New("403") },
	}
	p, stats := planAll(Policy{DepthRule: true}, e)
	if len(p.Rows()) != 0 {
		t.Errorf("rows = %d, want 0", len(p.Rows()))
	}
	if stats.Skipped[SkipDownloadFail] != 1 || len(stats.Errors) != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPlannerFolderContainers(t *testing.T) {
	entries := []Entry{
		folderEntry("Sales", 1),
		folderEntry(l3, 3),
		folderEntry(l3+"/Module 1", 12),
		folderEntry(l3+"/Module 1/Extras", 2),
	}

	p, stats := planAll(Policy{DepthRule: true, FolderContainers: true}, entries...)
	rows := p.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %v, want only the depth 5 folder", paths(p))
	}
	r := rows[0]
	if r.ContainerType != taxonomy.TypeFolder || r.ContentsCount != 12 || r.DisplayName != "Module 1" {
		t.Errorf("folder row = %+v", r)
	}
	if r.TrainingType != "video_on_demand" {
		t.Errorf("training type = %q, want video_on_demand", r.TrainingType)
	}
	if stats.FoldersScanned != 4 {
		t.Errorf("folders scanned = %d, want 4", stats.FoldersScanned)
	}

	p, _ = planAll(Policy{DepthRule: true}, entries...)
	if len(p.Rows()) != 0 {
		t.Errorf("folders became rows without FolderContainers: %v", paths(p))
	}

	p, _ = planAll(Policy{DepthRule: true, FolderContainers: true}, folderEntry(l3+"/02_Module 2", 1))
	if rows := p.Rows(); len(rows) != 1 || rows[0].DisplayName != "Module 2" || rows[0].RelativePath != l3+"/02_Module 2" {
		t.Errorf("prefixed folder row = %+v", rows)
	}
}

func TestPlannerScopeRecheck(t *testing.T) {
	outside := errors.New("item outside catalogue drive")

	folder := folderEntry(l3+"/Module 1", 1)
	folder.InScope = func() error { return outside }
	file := fileEntry(l3+"/intro.mp4", "")
	file.InScope = func() error { return outside }
	kept := fileEntry(l3+"/outro.mp4", "")
	kept.InScope = func() error { return nil }

	p, stats := planAll(Policy{DepthRule: true, FolderContainers: true}, folder, file, kept)
	if diff := cmp.Diff([]string{l3 + "/outro.mp4"}, paths(p)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if stats.ScopeViolations != 2 {
		t.Errorf("scope violations = %d, want 2", stats.ScopeViolations)
	}
}

func TestPlannerArchiveContents(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"a/", "a/one.pdf", "a/two.pdf", "three.pdf"} {
		if _, err := zw.Create(name); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	p, _ := planAll(Policy{DepthRule: true, CountArchives: true},
		fileEntry(l3+"/bundle.ZIP", buf.String()),
		fileEntry(l3+"/broken.zip", "not a zip"),
	)
	rows := p.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].ContentsCount != 3 {
		t.Errorf("bundle contents = %d, want 3", rows[0].ContentsCount)
	}
	if rows[1].ContentsCount != 0 {
		t.Errorf("broken contents = %d, want 0", rows[1].ContentsCount)
	}

	t.Run("file on disk", func(t *testing.T) {
		name := filepath.Join(t.TempDir(), "bundle.zip")
		if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
		e := Entry{
			RelativePath: l3 + "/bundle.zip",
			Name:         "bundle.zip",
			Open:         func() (io.ReadCloser, error) { return os.Open(name) },
		}
		p, _ := planAll(Policy{DepthRule: true, CountArchives: true}, e)
		if rows := p.Rows(); len(rows) != 1 || rows[0].ContentsCount != 3 {
			t.Errorf("rows = %+v, want one row with 3 contents", rows)
		}
	})

	t.Run("buffer cap", func(t *testing.T) {
		prev := maxArchiveBuffer
		maxArchiveBuffer = int64(buf.Len() - 1)
		t.Cleanup(func() { maxArchiveBuffer = prev })

		p, _ := planAll(Policy{DepthRule: true, CountArchives: true}, fileEntry(l3+"/bundle.zip", buf.String()))
		if rows := p.Rows(); len(rows) != 1 || rows[0].ContentsCount != 0 {
			t.Errorf("rows = %+v, want one uncounted row", rows)
		}
	})
}

func TestPlannerDuplicateKeys(t *testing.T) {
	p, _ := planAll(Policy{DepthRule: true},
		fileEntry(l3+"/Intro.mp4", ""),
		fileEntry(l3+"/intro.mp4", ""),
	)
	if diff := cmp.Diff([]string{l3 + "/intro.mp4"}, paths(p)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}
