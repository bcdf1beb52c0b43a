// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - ScrubRequest: decision, owner, notes, reasons, resource_count_override, audience
  - InvestRequest: decision, owner, effort, notes
  - SalesStageRequest: stage (null clears)
  - AudienceBulkRequest: container_keys, audience
  - ScrubBatchRequest: updates (container_key -> column -> value)

Request structs carry validator tags; handlers check them before touching
the database.

# Response Types

  - ContainerListResponse: containers plus resource and file totals
  - UpdatedResponse: number of rows changed
  - ErrorResponse: error, message

# Domain Types

  - Container: one row of the metadata overlay
  - SyncRun: one reconciliation pass with before/added/archived/after counts

# Constants

Scrub decisions:

	ScrubNotReviewed = "not_reviewed"
	ScrubInclude     = "Include"
	ScrubModify      = "Modify"
	ScrubSunset      = "Sunset"

Sync sources:

	SourceFolder     = "folder"
	SourceZip        = "zip"
	SourceSharePoint = "sharepoint"

Sales stages are listed in SalesStages; "untagged" filters for none.
*/
package models
