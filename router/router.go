// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielhkuo/training-catalogue/cliparse"
	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/handlers"
	"github.com/danielhkuo/training-catalogue/ingest"
	"github.com/danielhkuo/training-catalogue/middleware"
)

// NewRouter wires every endpoint. drive is nil when SharePoint sync is
// disabled.
func NewRouter(store *db.Store, syncer *ingest.Syncer, cfg cliparse.Config, drive ingest.DriveReader) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	containerHandler := handlers.NewContainerHandler(store)
	syncHandler := handlers.NewSyncHandler(store, syncer, cfg, drive)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.AdminKey, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.DB().PingContext(r.Context()); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Inventory
	mux.HandleFunc("GET /containers", middleware.WithLogging(containerHandler.ListContainers))
	mux.HandleFunc("GET /containers/{key}", middleware.WithLogging(containerHandler.GetContainer))

	// Staff decisions
	mux.HandleFunc("PUT /containers/{key}/scrub", middleware.WithLogging(containerHandler.UpdateScrub))
	mux.HandleFunc("PUT /containers/{key}/invest", middleware.WithLogging(containerHandler.UpdateInvest))
	mux.HandleFunc("PUT /containers/{key}/sales-stage", middleware.WithLogging(containerHandler.UpdateSalesStage))
	mux.HandleFunc("POST /containers/audience", middleware.WithLogging(containerHandler.UpdateAudience))
	mux.HandleFunc("POST /containers/scrub-batch", middleware.WithLogging(containerHandler.UpdateScrubBatch))

	// Reference lists
	mux.HandleFunc("GET /departments", middleware.WithLogging(containerHandler.ListDepartments))
	mux.HandleFunc("GET /training-types", middleware.WithLogging(containerHandler.ListTrainingTypes))
	mux.HandleFunc("GET /sales-stages", middleware.WithLogging(containerHandler.ListSalesStages))

	// Sync (admin operations)
	mux.HandleFunc("POST /sync/folder", admin(syncHandler.SyncFolder))
	mux.HandleFunc("POST /sync/zip", admin(syncHandler.SyncZip))
	mux.HandleFunc("POST /sync/sharepoint", admin(syncHandler.SyncSharePoint))
	mux.HandleFunc("GET /sync/runs", middleware.WithLogging(syncHandler.ListRuns))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("training-catalogue API v1"))
	})

	return mux
}
