// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package taxonomy classifies catalogue paths.

# Folder Structure

The catalogue library is laid out four levels deep:

	L0 Department       (HR, Point of Sale, ...)
	L1 Sub-Department   (_General, Aloha, OnePOS, ...)
	L2 Bucket           (01_Onboarding, 02_Upskilling, 03_Not Sure (drop here))
	L3 Training Type    (01_Instructor Led - In Person, 05_Job Aids, ...)

Everything below an L3 folder is content. ParsePath turns a relative path
into a Path, and IsLeafContainer decides by depth alone whether an item
becomes a container row.

# Links

A links.txt file directly under an L3 folder is not a resource itself.
ParseLinks expands it into one link per valid URL.

# Keys

Keys are deterministic so re-syncs land on the same rows:

	ContainerKey("", "HR/_General/01_Onboarding/05_Job Aids/a.pdf", TypeFile)
	LinkKey("HR/_General/01_Onboarding/05_Job Aids", "https://example.com")
*/
package taxonomy
