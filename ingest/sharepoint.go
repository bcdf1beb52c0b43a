// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/danielhkuo/training-catalogue/graph"
	"github.com/danielhkuo/training-catalogue/models"
	"github.com/danielhkuo/training-catalogue/taxonomy"
)

// ErrEmptyDownload is returned when Graph serves a file with no content.
var ErrEmptyDownload = errors.New("empty download")

// DriveReader is the part of the Graph client a SharePoint walk needs.
type DriveReader interface {
	ResolveSite(ctx context.Context, host, path string) (graph.Site, error)
	ResolveDrive(ctx context.Context, siteID, name string) (graph.Drive, error)
	Children(ctx context.Context, driveID, itemID string) ([]graph.DriveItem, error)
	Download(ctx context.Context, driveID, itemID string) ([]byte, error)
}

// SharePointSource walks the catalogue document library through Graph.
// The site and library are fixed by the graph package.
type SharePointSource struct {
	Client DriveReader
}

func (s SharePointSource) Kind() string { return models.SourceSharePoint }

func (s SharePointSource) Policy() Policy {
	return Policy{DepthRule: true, FolderContainers: true, Archive: true}
}

func (s SharePointSource) Walk(ctx context.Context, stats *Stats, emit func(Entry) error) error {
	site, err := s.Client.ResolveSite(ctx, graph.SiteHost, graph.SitePath)
	if err != nil {
		return err
	}
	drive, err := s.Client.ResolveDrive(ctx, site.ID, graph.LibraryName)
	if err != nil {
		return err
	}

	w := &driveWalker{client: s.Client, driveID: drive.ID, stats: stats, emit: emit}
	return w.walk(ctx, "root")
}

type driveWalker struct {
	client  DriveReader
	driveID string
	stats   *Stats
	emit    func(Entry) error
}

func (w *driveWalker) walk(ctx context.Context, itemID string) error {
	items, err := w.client.Children(ctx, w.driveID, itemID)
	if err != nil {
		if !errors.Is(err, graph.ErrItemNotFound) {
			return fmt.Errorf("list children of %s: %w", itemID, err)
		}
		slog.Warn("failed to list children", "item_id", itemID, "error", err)
		w.stats.AddError(fmt.Sprintf("list children of %s: %v", itemID, err))
		w.stats.Incomplete = true
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if taxonomy.IsExcluded(item.Name) {
			w.stats.skip(SkipExcluded)
			continue
		}

		if err := graph.ValidateItemInScope(item, w.driveID); err != nil {
			slog.Warn("scope violation", "error", err)
			w.stats.ScopeViolations++
			continue
		}

		rel := graph.RelativePath(item, w.driveID)
		it := item
		inScope := func() error { return graph.ValidateItemInScope(it, w.driveID) }

		if item.IsFolder() {
			err := w.emit(Entry{
				RelativePath: rel,
				Name:         item.Name,
				IsFolder:     true,
				ChildCount:   item.ChildCount(),
				DriveItemID:  item.ID,
				WebURL:       item.WebURL,
				InScope:      inScope,
			})
			if err != nil {
				return err
			}
			if err := w.walk(ctx, item.ID); err != nil {
				return err
			}
			continue
		}

		if item.File == nil {
			continue
		}

		err := w.emit(Entry{
			RelativePath: rel,
			Name:         item.Name,
			DriveItemID:  item.ID,
			WebURL:       item.WebURL,
			InScope:      inScope,
			Open: func() (io.ReadCloser, error) {
				if err := inScope(); err != nil {
					return nil, err
				}
				b, err := w.client.Download(ctx, w.driveID, it.ID)
				if err != nil {
					return nil, err
				}
				if len(b) == 0 {
					return nil, fmt.Errorf("download %s: %w", it.ID, ErrEmptyDownload)
				}
				return io.NopCloser(bytes.NewReader(b)), nil
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
