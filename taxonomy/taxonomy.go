// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package taxonomy

import (
	"regexp"
	"strings"
)

// L3Depth is the depth of a training type folder:
// Department / Sub-Department / Bucket / Training Type.
const L3Depth = 4

// LinksFile is the special file whose lines expand into link resources.
const LinksFile = "links.txt"

// Bucket keys
const (
	BucketOnboarding = "onboarding"
	BucketUpskilling = "upskilling"
	BucketNotSure    = "not_sure"
)

// bucketFolders maps template folder names to bucket keys. Order matters for
// prefix matching, so it is a slice rather than a map.
var bucketFolders = []struct {
	folder string
	key    string
}{
	{"01_onboarding", BucketOnboarding},
	{"02_upskilling", BucketUpskilling},
	{"03_not sure (drop here)", BucketNotSure},
}

var trainingTypeFolders = map[string]string{
	"01_instructor led - in person": "instructor_led_in_person",
	"02_instructor led - virtual":   "instructor_led_virtual",
	"03_self directed":              "self_directed",
	"04_video on demand":            "video_on_demand",
	"05_job aids":                   "job_aids",
	"06_resources":                  "resources",
}

var trainingTypeLabels = map[string]string{
	"instructor_led_in_person": "Instructor Led - In Person",
	"instructor_led_virtual":   "Instructor Led - Virtual",
	"self_directed":            "Self Directed",
	"video_on_demand":          "Video On Demand",
	"job_aids":                 "Job Aids",
	"resources":                "Resources",
}

// excludedNames never create resources. Compared lowercased.
var excludedNames = map[string]struct{}{
	"desktop.ini":      {},
	".ds_store":        {},
	"thumbs.db":        {},
	"instructions.txt": {},
	"instructions.pdf": {},
}

var dashReplacer = strings.NewReplacer("–", "-", "—", "-")

var numericPrefix = regexp.MustCompile(`^\d+[_\-\s]*(.+)$`)

// Path is the taxonomy extracted from a relative folder path.
type Path struct {
	Department    string
	SubDepartment string
	Bucket        string
	TrainingType  string
	Depth         int
}

// Segments splits a relative path into its non-empty components.
// Backslashes are treated as separators.
func Segments(relative string) []string {
	p := strings.Trim(strings.ReplaceAll(relative, `\`, "/"), "/")
	if p == "" {
		return nil
	}
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParsePath extracts department, sub-department, bucket and training type
// from a folder path. Missing levels are left empty.
func ParsePath(relative string) Path {
	parts := Segments(relative)
	p := Path{Depth: len(parts)}
	if len(parts) > 0 {
		p.Department = parts[0]
	}
	if len(parts) > 1 {
		p.SubDepartment = parts[1]
	}
	if len(parts) > 2 {
		p.Bucket = NormalizeBucket(parts[2])
	}
	if len(parts) > 3 {
		p.TrainingType = NormalizeTrainingType(parts[3])
	}
	return p
}

// NormalizeBucket maps a bucket folder name to its key. Unknown names are
// returned cleaned, since the folder structure is authoritative.
func NormalizeBucket(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}
	spaced := strings.ReplaceAll(key, "_", " ")
	for _, b := range bucketFolders {
		num, _, _ := strings.Cut(b.folder, "_")
		if strings.HasPrefix(key, num) && strings.Contains(spaced, strings.ReplaceAll(b.key, "_", " ")) {
			return b.key
		}
		if key == b.folder {
			return b.key
		}
	}
	fuzzy := strings.ReplaceAll(spaced, "-", " ")
	for _, b := range bucketFolders {
		if strings.Contains(fuzzy, b.key) {
			return b.key
		}
	}
	return key
}

// NormalizeTrainingType maps a training type folder name to its key, or
// returns "" when the folder is not a known training type.
func NormalizeTrainingType(name string) string {
	key := dashReplacer.Replace(strings.ToLower(strings.TrimSpace(name)))
	return trainingTypeFolders[key]
}

// TrainingTypeLabel returns the display label for a training type key.
func TrainingTypeLabel(key string) string {
	if l, ok := trainingTypeLabels[key]; ok {
		return l
	}
	return key
}

// IsExcluded reports whether name is an OS artifact or template file.
func IsExcluded(name string) bool {
	_, ok := excludedNames[strings.ToLower(name)]
	return ok
}

// IsLinksFile reports whether name is a links.txt file.
func IsLinksFile(name string) bool {
	return strings.EqualFold(name, LinksFile)
}

// IsLeafContainer decides whether an item becomes a container row.
// For files and links.txt, relative is the parent folder path.
// For folders, relative is the folder's own path.
//
// Detection is by depth only:
//   - links.txt directly under an L3 folder
//   - a folder directly under an L3 folder
//   - any file at or below an L3 folder
func IsLeafContainer(relative string, isFolder bool, name string) bool {
	depth := len(Segments(relative))
	switch {
	case IsLinksFile(name):
		return depth == L3Depth
	case isFolder:
		return depth == L3Depth+1
	default:
		return depth >= L3Depth
	}
}

// FormatFolderName strips the ordering prefix from a template folder name,
// e.g. "01_Onboarding" becomes "Onboarding".
func FormatFolderName(name string) string {
	if m := numericPrefix.FindStringSubmatch(name); m != nil {
		return m[1]
	}
	return name
}
