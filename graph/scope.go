// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package graph

import (
	"errors"
	"fmt"
	"strings"
)

// The sync scope is fixed here and nowhere else. Nothing reads it from
// configuration.
const (
	SiteHost    = "payrocllc.sharepoint.com"
	SitePath    = "/sites/Roc_UCentral"
	LibraryName = "Payroc Training Catalogue"
)

var ErrScopeViolation = errors.New("scope violation")

func rootPrefix(driveID string) string {
	return "/drives/" + driveID + "/root:"
}

// ValidateItemInScope fails closed unless item sits inside the root of
// driveID. A missing parent reference, drive ID or path is a violation.
func ValidateItemInScope(item DriveItem, driveID string) error {
	ref := item.ParentReference
	if ref == nil {
		return fmt.Errorf("%w: item %s has no parentReference", ErrScopeViolation, item.ID)
	}
	if ref.DriveID == "" {
		return fmt.Errorf("%w: item %s has no driveId", ErrScopeViolation, item.ID)
	}
	if driveID == "" || ref.DriveID != driveID {
		return fmt.Errorf("%w: item %s in drive %s", ErrScopeViolation, item.ID, ref.DriveID)
	}
	if ref.Path == "" {
		return fmt.Errorf("%w: item %s has no parentReference.path", ErrScopeViolation, item.ID)
	}

	prefix := rootPrefix(driveID)
	if !strings.HasPrefix(ref.Path, prefix) {
		return fmt.Errorf("%w: item %s outside root: %s", ErrScopeViolation, item.ID, ref.Path)
	}
	rest := ref.Path[len(prefix):]
	if rest != "" && !strings.HasPrefix(rest, "/") {
		return fmt.Errorf("%w: item %s outside root: %s", ErrScopeViolation, item.ID, ref.Path)
	}
	for _, seg := range strings.Split(rest, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: item %s path traversal: %s", ErrScopeViolation, item.ID, ref.Path)
		}
	}
	return nil
}

// RelativePath returns the item's path below the drive root, without a
// trailing slash. The item must already have passed ValidateItemInScope.
func RelativePath(item DriveItem, driveID string) string {
	var parent string
	if item.ParentReference != nil {
		parent = strings.TrimPrefix(item.ParentReference.Path, rootPrefix(driveID))
		parent = strings.Trim(parent, "/")
	}
	if parent == "" {
		return item.Name
	}
	return parent + "/" + item.Name
}
