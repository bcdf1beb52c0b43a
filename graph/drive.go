// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

var (
	ErrSiteNotFound   = errors.New("graph: site not found")
	ErrDriveNotFound  = errors.New("graph: library not found")
	ErrAmbiguousDrive = errors.New("graph: multiple libraries match")
	ErrItemNotFound   = errors.New("graph: item not found or forbidden")
)

// pageSize is requested on child listings; Graph may return fewer.
const pageSize = 200

type Site struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	WebURL      string `json:"webUrl"`
}

type Drive struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	WebURL string `json:"webUrl"`
}

type ParentReference struct {
	ID      string `json:"id"`
	DriveID string `json:"driveId"`
	Path    string `json:"path"`
}

type FolderFacet struct {
	ChildCount int `json:"childCount"`
}

type FileFacet struct {
	MimeType string `json:"mimeType"`
}

// DriveItem is a file or folder in a document library.
type DriveItem struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	WebURL          string           `json:"webUrl"`
	Size            int64            `json:"size"`
	ParentReference *ParentReference `json:"parentReference,omitempty"`
	Folder          *FolderFacet     `json:"folder,omitempty"`
	File            *FileFacet       `json:"file,omitempty"`
}

// IsFolder reports whether the item carries a folder facet.
func (i DriveItem) IsFolder() bool {
	return i.Folder != nil
}

// ChildCount is the folder's child count, or 0 for files.
func (i DriveItem) ChildCount() int {
	if i.Folder == nil {
		return 0
	}
	return i.Folder.ChildCount
}

type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// ResolveSite looks up a site by host name and server-relative path.
func (c *Client) ResolveSite(ctx context.Context, host, path string) (Site, error) {
	var s Site
	found, err := c.Get(ctx, "sites/"+host+":"+path, &s)
	if err != nil {
		return Site{}, fmt.Errorf("resolve site %s%s: %w", host, path, err)
	}
	if !found || s.ID == "" {
		return Site{}, fmt.Errorf("%w: %s%s", ErrSiteNotFound, host, path)
	}
	slog.Info("resolved site", "site_id", s.ID)
	return s, nil
}

// ResolveDrive finds the library named exactly name. No match or more
// than one match is an error.
func (c *Client) ResolveDrive(ctx context.Context, siteID, name string) (Drive, error) {
	drives, err := collect[Drive](ctx, c, "sites/"+url.PathEscape(siteID)+"/drives")
	if err != nil {
		return Drive{}, fmt.Errorf("list drives: %w", err)
	}

	var matches []Drive
	available := make([]string, 0, len(drives))
	for _, d := range drives {
		available = append(available, d.Name)
		if d.Name == name {
			matches = append(matches, d)
		}
	}

	switch len(matches) {
	case 0:
		return Drive{}, fmt.Errorf("%w: %q (available: %v)", ErrDriveNotFound, name, available)
	case 1:
		slog.Info("resolved drive", "drive_id", matches[0].ID, "library", name)
		return matches[0], nil
	default:
		return Drive{}, fmt.Errorf("%w: %q", ErrAmbiguousDrive, name)
	}
}

// Children lists every child of itemID, following pagination links.
// An empty itemID or "root" lists the drive root.
func (c *Client) Children(ctx context.Context, driveID, itemID string) ([]DriveItem, error) {
	var path string
	if itemID == "" || itemID == "root" {
		path = fmt.Sprintf("drives/%s/root/children?$top=%d", url.PathEscape(driveID), pageSize)
	} else {
		path = fmt.Sprintf("drives/%s/items/%s/children?$top=%d", url.PathEscape(driveID), url.PathEscape(itemID), pageSize)
	}
	return collect[DriveItem](ctx, c, path)
}

// Download returns the content of a file item.
func (c *Client) Download(ctx context.Context, driveID, itemID string) ([]byte, error) {
	body, found, err := c.fetch(ctx, fmt.Sprintf("drives/%s/items/%s/content", url.PathEscape(driveID), url.PathEscape(itemID)))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	return body, nil
}

// collect follows @odata.nextLink until the listing is exhausted. A 403 or
// 404 on the first page is ErrItemNotFound; on a later page the listing
// so far is returned with ErrItemNotFound.
func collect[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	for path != "" {
		var p page[T]
		found, err := c.Get(ctx, path, &p)
		if err != nil {
			return out, err
		}
		if !found {
			return out, fmt.Errorf("%w: %s", ErrItemNotFound, path)
		}
		out = append(out, p.Value...)
		path = p.NextLink
	}
	return out, nil
}
