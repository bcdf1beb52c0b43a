// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package graph is a small read-only Microsoft Graph client for walking one
SharePoint document library.

# Authentication

Tokens come from an Entra ID app registration using client credentials.
CredentialsFromEnv reads SHAREPOINT_TENANT_ID, SHAREPOINT_CLIENT_ID and
SHAREPOINT_CLIENT_SECRET and fails closed, naming any that are missing:

	creds, err := graph.CredentialsFromEnv(os.Getenv)
	cred, err := creds.TokenCredential()
	client := graph.NewClient(cred)

# Requests

Get returns found=false for 403 and 404 so callers can skip an item. 429
waits for Retry-After (or the current backoff), 503 and timeouts wait for
the backoff: 3s, doubling, capped at 60s. After five attempts the request
fails with ErrMaxRetries. 401 is ErrUnauthorized. Any other status fails
with the first 200 bytes of the body.

All requests share a token-bucket rate limiter and a circuit breaker that
opens after ten consecutive transport or 5xx failures.

# Scope

SiteHost, SitePath and LibraryName fix the one library a sync may read.
ValidateItemInScope rejects any item whose parent reference is missing,
names another drive, or lies outside the drive root. Pagination links must
stay under the client's base URL.
*/
package graph
