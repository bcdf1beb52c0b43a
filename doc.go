// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the training catalogue API server.

The catalogue inventories training content stored in a four-level folder
taxonomy (department / sub-department / bucket / training type). Syncs walk
a local folder, an uploaded ZIP export or the SharePoint document library,
reconcile what they find into a database and archive containers that have
disappeared. Staff decisions (scrub, investment, audience, sales stage) live
beside the synced metadata and survive every sync.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=postgres://... ADMIN_KEY=... go run .

Or with flags:

	go run . -p 3318 -d "postgres://..." -admin-key ...

A .env file in the working directory is loaded first; variables already set
in the environment win.

# Configuration

Required settings:

  - DATABASE_URL (-d): Database connection string
  - ADMIN_KEY (-admin-key): Key for sync triggers

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): postgres (default) or sqlite
  - CATALOGUE_DIR (-catalogue-dir): Local mirror for folder syncs
  - SHAREPOINT_SYNC_ENABLED: Enable Graph syncs; needs SHAREPOINT_TENANT_ID,
    SHAREPOINT_CLIENT_ID and SHAREPOINT_CLIENT_SECRET
  - GRAPH_RATE_LIMIT: Graph requests per second (default: 10)

# One-shot Sync

	go run . -sync folder
	go run . -sync sharepoint

runs one sync, logs the counts and exits without serving.

# Architecture

  - taxonomy: Depth rules, exclusions, deterministic keys, links.txt parsing
  - ingest: Folder, ZIP and SharePoint walks and the reconciling syncer
  - graph: Rate-limited, retrying Microsoft Graph client with a scope guard
  - db: Schema, dialect rebinding, container and decision queries
  - handlers: HTTP request handlers (containers, sync)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, admin auth, JSON and validation helpers
  - metrics: Prometheus collectors
  - auth: Admin key checks
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
