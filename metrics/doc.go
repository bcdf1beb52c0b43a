// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors for API traffic and sync
// runs. Collectors register with the default registry and are served by
// promhttp on GET /metrics.
package metrics
