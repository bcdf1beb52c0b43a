// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ingest walks a catalogue folder tree and reconciles it against the
metadata overlay.

# Sources

A Source emits every folder and file it finds as an Entry:

  - FolderSource: a local mirror on disk. The root must exist and be a
    directory. Symlinks resolving outside the root are rejected as path
    traversal.
  - ZipSource: an uploaded export. The archive's top folder is stripped,
    every file is a resource whatever its depth, and nothing is archived.
  - SharePointSource: the locked document library through Graph. Every item
    passes the scope guard before it is recursed into, emitted or
    downloaded. Folders directly under a training type folder become
    folder containers.

# Planning

A Planner turns entries into rows in four steps: exclusion, the depth
rule, links.txt expansion, row building. links.txt never becomes a row;
each URL in it becomes a link row. A links.txt with no URLs yields nothing.

# Reconciliation

Syncer.Run stamps every row with the run's start time, plans without
writing, then upserts and archives stale rows in one transaction:

	syncer := ingest.NewSyncer(store)
	res, err := syncer.Run(ctx, ingest.FolderSource{Root: "/data/catalogue"})

A second Run while one is active fails with ErrSyncInProgress.
*/
package ingest
