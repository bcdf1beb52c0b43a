// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /containers", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status,
duration_ms). Each completed request is also counted in the
catalogue_api_requests_total and catalogue_api_request_duration_seconds
metrics.

# Admin Guard

Admin endpoints require the configured key:

	mux.HandleFunc("POST /sync/folder",
		middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h.SyncFolder)))

A missing or wrong key gets 401. The key is never logged, only its
fingerprint.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Key.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse and validate JSON request bodies in one step:

	var req models.ScrubRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

Validation uses the struct's validate tags through a shared
go-playground/validator instance. Error messages name fields by their JSON
names. Bodies over MaxJSONBody are rejected.

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)
*/
package middleware
