// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/taxonomy"
)

// maxLinksFileSize caps how much of a links.txt is read.
const maxLinksFileSize = 1 << 20

// maxArchiveBuffer caps how much of a non-seekable .zip is held in memory.
var maxArchiveBuffer int64 = 256 << 20

// Planner turns entries into container rows without touching the database.
type Planner struct {
	kind     string
	policy   Policy
	lastSeen string
	stats    *Stats

	rows        []db.ContainerRow
	index       map[string]int
	departments map[string]bool
}

// NewPlanner creates a planner for one run of a source. Every row gets
// lastSeen.
func NewPlanner(kind string, policy Policy, lastSeen string, stats *Stats) *Planner {
	return &Planner{
		kind:        kind,
		policy:      policy,
		lastSeen:    lastSeen,
		stats:       stats,
		index:       map[string]int{},
		departments: map[string]bool{},
	}
}

// Rows returns the planned rows, one per container key.
func (p *Planner) Rows() []db.ContainerRow {
	return p.rows
}

// Departments returns the departments seen, sorted.
func (p *Planner) Departments() []string {
	return sortedKeys(p.departments)
}

// Add classifies one entry.
func (p *Planner) Add(e Entry) error {
	if taxonomy.IsExcluded(e.Name) {
		p.stats.skip(SkipExcluded)
		return nil
	}

	if e.InScope != nil {
		if err := e.InScope(); err != nil {
			slog.Warn("scope violation", "path", e.RelativePath, "error", err)
			p.stats.ScopeViolations++
			return nil
		}
	}

	if e.IsFolder {
		p.stats.FoldersScanned++
		if p.policy.FolderContainers && taxonomy.IsLeafContainer(e.RelativePath, true, e.Name) {
			p.addFolder(e)
		}
		return nil
	}

	p.stats.FilesScanned++
	parent := e.Parent()
	if p.policy.DepthRule && !taxonomy.IsLeafContainer(parent, false, e.Name) {
		p.stats.skip(SkipDepth)
		slog.Debug("skip depth", "path", e.RelativePath, "depth", len(taxonomy.Segments(parent)))
		return nil
	}

	if taxonomy.IsLinksFile(e.Name) {
		p.addLinks(e, parent)
		return nil
	}

	p.addFile(e, parent)
	return nil
}

func (p *Planner) addFolder(e Entry) {
	row := p.base(taxonomy.ParsePath(e.RelativePath))
	row.ContainerKey = taxonomy.ContainerKey("", e.RelativePath, taxonomy.TypeFolder)
	row.DriveItemID = e.DriveItemID
	row.RelativePath = e.RelativePath
	row.ContainerType = taxonomy.TypeFolder
	row.DisplayName = taxonomy.FormatFolderName(e.Name)
	row.WebURL = e.WebURL
	row.ResourceCount = 1
	row.ContentsCount = e.ChildCount
	p.put(row)
}

func (p *Planner) addFile(e Entry, parent string) {
	row := p.base(taxonomy.ParsePath(parent))
	row.ContainerKey = taxonomy.ContainerKey("", e.RelativePath, taxonomy.TypeFile)
	row.DriveItemID = e.DriveItemID
	row.RelativePath = e.RelativePath
	row.ContainerType = taxonomy.TypeFile
	row.DisplayName = e.Name
	row.WebURL = e.WebURL
	row.ResourceCount = 1
	if p.policy.CountArchives && strings.HasSuffix(strings.ToLower(e.Name), ".zip") {
		row.ContentsCount = p.countArchive(e)
	}
	p.put(row)
}

func (p *Planner) addLinks(e Entry, parent string) {
	content, err := readEntry(e, maxLinksFileSize)
	if err != nil {
		p.stats.skip(SkipDownloadFail)
		p.stats.AddError(fmt.Sprintf("read %s: %v", e.RelativePath, err))
		return
	}

	links := taxonomy.ParseLinks(string(content))
	if len(links.URLs) == 0 {
		p.stats.skip(SkipNoURLs)
		return
	}

	path := taxonomy.ParsePath(parent)
	for _, u := range links.URLs {
		row := p.base(path)
		row.ContainerKey = taxonomy.LinkKey(parent, u)
		row.RelativePath = taxonomy.LinkRelativePath(parent, u)
		row.ContainerType = taxonomy.TypeLink
		row.DisplayName = u
		row.WebURL = u
		row.ResourceCount = 1
		row.ValidLinkCount = 1
		p.put(row)
		p.stats.LinksCreated++
	}
}

// seekableFile is satisfied by *os.File.
type seekableFile interface {
	io.ReaderAt
	Stat() (fs.FileInfo, error)
}

// countArchive returns the number of files in a .zip entry, or 0 when it
// cannot be read. Files opened from disk are read in place; other content
// is buffered up to maxArchiveBuffer.
func (p *Planner) countArchive(e Entry) int {
	if e.Open == nil {
		return 0
	}
	rc, err := e.Open()
	if err != nil {
		return 0
	}
	defer rc.Close()

	var (
		r    io.ReaderAt
		size int64
	)
	if f, ok := rc.(seekableFile); ok {
		info, err := f.Stat()
		if err != nil {
			return 0
		}
		r, size = f, info.Size()
	} else {
		b, err := io.ReadAll(io.LimitReader(rc, maxArchiveBuffer+1))
		if err != nil {
			return 0
		}
		if int64(len(b)) > maxArchiveBuffer {
			slog.Debug("archive too large to count", "path", e.RelativePath)
			return 0
		}
		r, size = bytes.NewReader(b), int64(len(b))
	}

	n, err := countArchiveFiles(r, size)
	if err != nil {
		return 0
	}
	return n
}

func (p *Planner) base(path taxonomy.Path) db.ContainerRow {
	if path.Department != "" {
		p.departments[path.Department] = true
	}
	return db.ContainerRow{
		Bucket:            path.Bucket,
		PrimaryDepartment: path.Department,
		SubDepartment:     path.SubDepartment,
		TrainingType:      path.TrainingType,
		Source:            p.kind,
		LastSeen:          p.lastSeen,
	}
}

// put appends row, replacing an earlier row with the same key.
func (p *Planner) put(row db.ContainerRow) {
	if i, ok := p.index[row.ContainerKey]; ok {
		p.rows[i] = row
		return
	}
	p.index[row.ContainerKey] = len(p.rows)
	p.rows = append(p.rows, row)
}

// readEntry reads an entry's content, up to limit bytes when limit > 0.
func readEntry(e Entry, limit int64) ([]byte, error) {
	if e.Open == nil {
		return nil, fmt.Errorf("no content for %s", e.RelativePath)
	}
	rc, err := e.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit)
	}
	return io.ReadAll(r)
}
