// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
)

// AdminKeyHeader carries the admin key on sync and other admin requests.
const AdminKeyHeader = "X-Admin-Key"

var (
	ErrMissingAdminKey = errors.New("admin key required")
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrAdminDisabled   = errors.New("admin key not configured")
)

// ValidateAdminKey compares provided against the configured key in constant
// time. Both are hashed first so the comparison does not leak the length.
func ValidateAdminKey(provided, configured string) error {
	if configured == "" {
		return ErrAdminDisabled
	}
	if provided == "" {
		return ErrMissingAdminKey
	}
	a := sha256.Sum256([]byte(provided))
	b := sha256.Sum256([]byte(configured))
	if !hmac.Equal(a[:], b[:]) {
		return ErrInvalidAdminKey
	}
	return nil
}

// AdminKeyFromRequest reads the admin key from the X-Admin-Key header, or
// from an "Authorization: Bearer" header.
func AdminKeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(AdminKeyHeader)); key != "" {
		return key
	}
	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// Fingerprint returns a short, non-reversible tag for a key so logs can
// tell keys apart without recording them.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:4])
}
