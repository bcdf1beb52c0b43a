// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: connection string (required)
  - DatabaseType: postgres (default) or sqlite
  - DBWait: how long the first connection is retried (default: 30s)
  - AdminKey: secret required by admin endpoints (required)
  - CatalogueDir: local mirror used by folder syncs
  - SharePointEnabled: turns on Graph syncs (default: off)
  - GraphRateLimit: Graph requests per second (default: 10)
  - SyncOnce: run one sync and exit

# CLI Flags

	-p              Server port
	-d              Database URL
	-t              Database type
	-db-wait        Initial connection retry window
	-admin-key      Admin key
	-catalogue-dir  Local catalogue folder
	-sync           One-shot sync: folder or sharepoint
	-env            Env file to load (default: .env)

# Environment Variables

Flags fall back to environment variables:

	PORT                    → -p
	DATABASE_URL            → -d
	DATABASE_TYPE           → -t
	ADMIN_KEY               → -admin-key
	CATALOGUE_DIR           → -catalogue-dir
	SHAREPOINT_SYNC_ENABLED
	GRAPH_RATE_LIMIT

CLI flags take precedence over environment variables. The env file is
loaded with godotenv before the fallback and never overrides variables that
are already set. A missing env file is not an error.

Graph credentials (AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET)
are read by the graph package, not here, so they never sit in Config.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing
  - ADMIN_KEY is missing
  - -sync folder is given without a catalogue dir
  - -sync sharepoint is given with SharePoint sync disabled
*/
package cliparse
