// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db is the metadata overlay: schema, migrations, and every query the
sync pipeline and the HTTP API run.

# Connecting

Open sizes the pool and waits for the server with exponential backoff:

	conn, err := db.Open(ctx, db.Postgres, cfg.DatabaseURL, 30*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(conn, db.Postgres); err != nil {
		log.Fatal(err)
	}
	store, err := db.NewStore(conn, db.Postgres)

Postgres is the production dialect. SQLite (modernc.org/sqlite) is used for
tests and local runs and is limited to one open connection, so any query
issued while a transaction is open must go through that transaction.

# Placeholders

Queries are written with "?" placeholders. Rebind rewrites them to $1, $2,
... for Postgres, skipping quoted strings, quoted identifiers and comments.

# Tables

  - resource_containers: one row per file, folder or link, plus staff decisions
  - sync_runs: one row per reconciliation pass
  - departments: every department a sync has discovered

# Ownership

Sync writes only taxonomy, counts, names, URLs and last_seen. Scrub,
investment, audience and sales stage columns belong to staff and are
written only by the decision methods (UpdateScrub, UpdateInvest,
UpdateSalesStage, UpdateAudienceBulk, UpdateScrubBatch). first_seen and
container_type are set once on insert.

# Reconciliation

Every row written by a run carries the run's start time in last_seen.
ArchiveStale then archives active rows older than that start time. Both run
in one transaction via WithTx. Re-appearing rows are un-archived by the
upsert.

# Timestamps

All timestamps are TEXT in TimeLayout, UTC with microseconds, so string
comparison is chronological on both dialects.

# Caching

ActiveDepartments and ActiveTrainingTypes are cached in a ristretto cache
for 30 seconds. ClearCache drops them; the sync pipeline calls it after
every run.
*/
package db
