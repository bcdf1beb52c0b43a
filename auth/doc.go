// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth guards the admin endpoints of the catalogue API.

# Admin Key

Sync triggers and other admin operations require the configured admin key:

	key := auth.AdminKeyFromRequest(r)
	if err := auth.ValidateAdminKey(key, cfg.AdminKey); err != nil {
		// 401
	}

The key is read from the X-Admin-Key header, falling back to an
Authorization bearer token. Both sides are hashed with SHA-256 and compared
with hmac.Equal, so neither the content nor the length of the configured
key leaks through timing.

When no key is configured every admin request fails with ErrAdminDisabled.

# Fingerprints

Logs never carry the key itself:

	slog.Warn("rejected admin key", "fingerprint", auth.Fingerprint(key))

A fingerprint is the first 4 bytes (8 hex chars) of the key's SHA-256.
*/
package auth
