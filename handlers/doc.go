// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the training catalogue API.

# Handler Types

Each handler is a struct holding its dependencies:

  - ContainerHandler: inventory reads, staff decisions, reference lists
  - SyncHandler: sync triggers and sync run history

Handlers are created via constructor functions:

	containerHandler := handlers.NewContainerHandler(store)
	syncHandler := handlers.NewSyncHandler(store, syncer, cfg, driveClient)

# Inventory

	GET /containers       → ListContainers (department, training_type, sales_stage filters)
	GET /containers/{key} → GetContainer

Only active, non-placeholder containers are listed. sales_stage=untagged
selects containers with no stage.

# Decisions

Staff decisions live beside the synced metadata and survive every sync:

	PUT  /containers/{key}/scrub       → UpdateScrub
	PUT  /containers/{key}/invest      → UpdateInvest
	PUT  /containers/{key}/sales-stage → UpdateSalesStage
	POST /containers/audience          → UpdateAudience (bulk)
	POST /containers/scrub-batch       → UpdateScrubBatch

Request bodies are validated with their struct tags. Owners are optional.
Audiences must match the canonical list exactly; an empty audience
unassigns. Unknown containers get 404; invalid decisions, stages,
audiences and batch scrub reasons get 400.

# Sync

	POST /sync/folder     → SyncFolder (configured local mirror)
	POST /sync/zip        → SyncZip (multipart upload, field "file")
	POST /sync/sharepoint → SyncSharePoint (503 when disabled)
	GET  /sync/runs       → ListRuns

Sync triggers require the X-Admin-Key header. A trigger that arrives while
another sync is running gets 409. Graph failures map to 502.
*/
package handlers
