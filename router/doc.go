// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the training catalogue API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(store, syncer, cfg, driveClient)

driveClient is nil when SharePoint sync is disabled.

# Endpoints

Health and metrics:

	GET /health  - Liveness, pings the database
	GET /metrics - Prometheus exposition

Inventory and decisions:

	GET  /containers                   - Active inventory
	GET  /containers/{key}             - One container
	PUT  /containers/{key}/scrub       - Scrub decision
	PUT  /containers/{key}/invest      - Investment decision
	PUT  /containers/{key}/sales-stage - Set or clear sales stage
	POST /containers/audience          - Bulk audience
	POST /containers/scrub-batch       - Batch scrub edits

Reference lists:

	GET /departments        - Active departments; ?all=1 for every one seen
	GET /training-types     - Key and label pairs; ?department= to filter
	GET /sales-stages

Sync (admin, requires X-Admin-Key):

	POST /sync/folder
	POST /sync/zip
	POST /sync/sharepoint

	GET /sync/runs - Recent runs, newest first

Every route except /health and /metrics is wrapped in request logging.
*/
package router
