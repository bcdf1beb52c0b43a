// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package taxonomy

import "strings"

// Links is the parsed content of a links.txt file.
type Links struct {
	URLs           []string
	ValidLinkCount int
	ResourceCount  int
	IsPlaceholder  bool
}

// ParseLinks extracts URLs from links.txt content. Blank lines and
// "#" comments are ignored, "www." lines get an https scheme, and anything
// else that is not http(s) is dropped.
func ParseLinks(content string) Links {
	var urls []string
	for _, line := range strings.Split(strings.TrimSpace(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "www."):
			line = "https://" + line
		case strings.HasPrefix(line, "http://"), strings.HasPrefix(line, "https://"):
		default:
			continue
		}
		urls = append(urls, line)
	}

	return Links{
		URLs:           urls,
		ValidLinkCount: len(urls),
		ResourceCount:  len(urls),
		IsPlaceholder:  len(urls) == 0,
	}
}
