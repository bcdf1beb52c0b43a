// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Container types
const (
	TypeFile   = "file"
	TypeFolder = "folder"
	TypeLink   = "link"
	TypeLinks  = "links"
)

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ContainerKey returns the deterministic key for a container. A drive item
// ID wins when present; otherwise the key is derived from the lowercased
// path and the container type.
func ContainerKey(driveItemID, relativePath, containerType string) string {
	if driveItemID != "" {
		return driveItemID
	}
	return sha256Hex(strings.ToLower(relativePath) + "|" + containerType)[:32]
}

// LinkKey returns the key of a link expanded from links.txt in parentPath.
func LinkKey(parentPath, url string) string {
	return sha256Hex(parentPath + "|" + url + "|" + TypeLink)[:16]
}

// LinkRelativePath returns the display path of a link expanded from
// links.txt in parentPath.
func LinkRelativePath(parentPath, url string) string {
	hash := sha256Hex(url)[:8]
	if parentPath == "" {
		return LinksFile + "#" + hash
	}
	return parentPath + "/" + LinksFile + "#" + hash
}

// FileCount is the secondary file metric of a container: one per file,
// the valid link count for links, and zero for anything else.
func FileCount(containerType string, validLinkCount int) int {
	switch containerType {
	case TypeFile:
		return 1
	case TypeLink, TypeLinks:
		return max(validLinkCount, 0)
	default:
		return 0
	}
}
