// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/danielhkuo/training-catalogue/cliparse"
	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/graph"
	"github.com/danielhkuo/training-catalogue/ingest"
	"github.com/danielhkuo/training-catalogue/middleware"
	"github.com/danielhkuo/training-catalogue/models"
)

const (
	// MaxZipUpload caps uploaded catalogue exports.
	MaxZipUpload = 512 << 20
	// zipMemory is how much of an upload is held in memory before spilling
	// to a temp file.
	zipMemory = 32 << 20
)

const maxRunLimit = 200

type SyncHandler struct {
	store  *db.Store
	syncer *ingest.Syncer
	cfg    cliparse.Config
	drive  ingest.DriveReader
}

// NewSyncHandler creates the sync trigger handler. drive is nil when
// SharePoint sync is disabled.
func NewSyncHandler(store *db.Store, syncer *ingest.Syncer, cfg cliparse.Config, drive ingest.DriveReader) *SyncHandler {
	return &SyncHandler{store: store, syncer: syncer, cfg: cfg, drive: drive}
}

// SyncFolder handles POST /sync/folder
func (h *SyncHandler) SyncFolder(w http.ResponseWriter, r *http.Request) {
	if h.cfg.CatalogueDir == "" {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Folder sync is not configured")
		return
	}
	h.run(w, r, ingest.FolderSource{Root: h.cfg.CatalogueDir})
}

// SyncZip handles POST /sync/zip (multipart form, field "file")
func (h *SyncHandler) SyncZip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxZipUpload)
	if err := r.ParseMultipartForm(zipMemory); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if !strings.EqualFold(path.Ext(header.Filename), ".zip") {
		middleware.ErrorResponse(w, http.StatusBadRequest, "file must be a .zip archive")
		return
	}

	slog.Info("zip upload received", "filename", header.Filename, "size", header.Size)
	h.run(w, r, ingest.ZipSource{Reader: file, Size: header.Size})
}

// SyncSharePoint handles POST /sync/sharepoint
func (h *SyncHandler) SyncSharePoint(w http.ResponseWriter, r *http.Request) {
	if h.drive == nil {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "SharePoint sync is disabled")
		return
	}
	h.run(w, r, ingest.SharePointSource{Client: h.drive})
}

// ListRuns handles GET /sync/runs
func (h *SyncHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := db.DefaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunLimit {
			middleware.ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	runs, err := h.store.ListSyncRuns(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list sync runs", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list sync runs")
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	middleware.JSONResponse(w, http.StatusOK, models.SyncRunsResponse{Runs: runs})
}

// run executes one sync. It is detached from the request's cancellation so
// a dropped client does not abort a long walk.
func (h *SyncHandler) run(w http.ResponseWriter, r *http.Request, src ingest.Source) {
	ctx := context.WithoutCancel(r.Context())

	res, err := h.syncer.Run(ctx, src)
	if err != nil {
		writeSyncError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

func writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrSyncInProgress):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, ingest.ErrRootNotFound), errors.Is(err, ingest.ErrNotDirectory):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, graph.ErrUnauthorized),
		errors.Is(err, graph.ErrMaxRetries),
		errors.Is(err, graph.ErrSiteNotFound),
		errors.Is(err, graph.ErrDriveNotFound),
		errors.Is(err, graph.ErrAmbiguousDrive):
		middleware.ErrorResponse(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, ingest.ErrInvalidArchive):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid zip archive")
	default:
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Sync failed")
	}
}
