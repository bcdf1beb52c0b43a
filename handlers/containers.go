// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/danielhkuo/training-catalogue/db"
	"github.com/danielhkuo/training-catalogue/middleware"
	"github.com/danielhkuo/training-catalogue/models"
	"github.com/danielhkuo/training-catalogue/taxonomy"
)

type ContainerHandler struct {
	store *db.Store
}

func NewContainerHandler(store *db.Store) *ContainerHandler {
	return &ContainerHandler{store: store}
}

// ListContainers handles GET /containers
func (h *ContainerHandler) ListContainers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.Filter{
		Department:   strings.TrimSpace(q.Get("department")),
		TrainingType: strings.TrimSpace(q.Get("training_type")),
		SalesStage:   strings.TrimSpace(q.Get("sales_stage")),
	}
	if filter.SalesStage != "" && filter.SalesStage != models.SalesStageUntagged && !models.IsSalesStage(filter.SalesStage) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "unknown sales_stage")
		return
	}

	containers, err := h.store.ListActive(r.Context(), filter)
	if err != nil {
		slog.Error("failed to list containers", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list containers")
		return
	}

	if containers == nil {
		containers = []models.Container{}
	}
	resp := models.ContainerListResponse{Containers: containers}
	for _, c := range containers {
		resp.TotalResources += c.ResourceCount
		resp.TotalFiles += taxonomy.FileCount(c.ContainerType, c.ValidLinkCount)
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetContainer handles GET /containers/{key}
func (h *ContainerHandler) GetContainer(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	c, err := h.store.GetContainer(r.Context(), key)
	if err != nil {
		writeStoreError(w, err, "Failed to get container")
		return
	}

	resp := models.ContainerDetailResponse{Container: c}
	if c.ContainerType != taxonomy.TypeFolder {
		parent := path.Dir(c.RelativePath)
		if parent != "." {
			n, err := h.store.FolderContentsCount(r.Context(), parent)
			if err != nil {
				slog.Error("failed to read folder contents count", "key", key, "error", err)
			}
			resp.FolderContentsCount = n
		}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// UpdateScrub handles PUT /containers/{key}/scrub
func (h *ContainerHandler) UpdateScrub(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req models.ScrubRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	err := h.store.UpdateScrub(r.Context(), key, db.ScrubUpdate{
		Decision:              req.Decision,
		Owner:                 strings.TrimSpace(req.Owner),
		Notes:                 req.Notes,
		Reasons:               req.Reasons,
		ResourceCountOverride: req.ResourceCountOverride,
		Audience:              req.Audience,
	})
	if err != nil {
		writeStoreError(w, err, "Failed to update scrub decision")
		return
	}

	slog.Info("scrub decision recorded", "key", key, "decision", req.Decision, "owner", req.Owner)
	h.respondContainer(w, r, key)
}

// UpdateInvest handles PUT /containers/{key}/invest
func (h *ContainerHandler) UpdateInvest(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req models.InvestRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	err := h.store.UpdateInvest(r.Context(), key, db.InvestUpdate{
		Decision: req.Decision,
		Owner:    strings.TrimSpace(req.Owner),
		Effort:   req.Effort,
		Notes:    req.Notes,
	})
	if err != nil {
		writeStoreError(w, err, "Failed to update investment decision")
		return
	}

	slog.Info("investment decision recorded", "key", key, "decision", req.Decision, "owner", req.Owner)
	h.respondContainer(w, r, key)
}

// UpdateSalesStage handles PUT /containers/{key}/sales-stage
func (h *ContainerHandler) UpdateSalesStage(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var req models.SalesStageRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	if err := h.store.UpdateSalesStage(r.Context(), key, req.Stage); err != nil {
		writeStoreError(w, err, "Failed to update sales stage")
		return
	}
	h.respondContainer(w, r, key)
}

// UpdateAudience handles POST /containers/audience
func (h *ContainerHandler) UpdateAudience(w http.ResponseWriter, r *http.Request) {
	var req models.AudienceBulkRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	n, err := h.store.UpdateAudienceBulk(r.Context(), req.ContainerKeys, req.Audience)
	if err != nil {
		writeStoreError(w, err, "Failed to update audience")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.UpdatedResponse{Updated: n})
}

// UpdateScrubBatch handles POST /containers/scrub-batch
func (h *ContainerHandler) UpdateScrubBatch(w http.ResponseWriter, r *http.Request) {
	var req models.ScrubBatchRequest
	if !middleware.DecodeAndValidate(w, r, &req) {
		return
	}

	n, err := h.store.UpdateScrubBatch(r.Context(), req.Updates)
	if err != nil {
		writeStoreError(w, err, "Failed to apply scrub edits")
		return
	}
	slog.Info("scrub batch applied", "requested", len(req.Updates), "updated", n)
	middleware.JSONResponse(w, http.StatusOK, models.UpdatedResponse{Updated: n})
}

// ListDepartments handles GET /departments. With ?all=1 it returns every
// department ever discovered, including those with no active containers.
func (h *ContainerHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	list := h.store.ActiveDepartments
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		list = h.store.ListDepartments
	}
	depts, err := list(r.Context())
	if err != nil {
		slog.Error("failed to list departments", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list departments")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DepartmentsResponse{Departments: nonNil(depts)})
}

// ListTrainingTypes handles GET /training-types
func (h *ContainerHandler) ListTrainingTypes(w http.ResponseWriter, r *http.Request) {
	dept := strings.TrimSpace(r.URL.Query().Get("department"))

	types, err := h.store.ActiveTrainingTypes(r.Context(), dept)
	if err != nil {
		slog.Error("failed to list training types", "department", dept, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to list training types")
		return
	}
	resp := models.TrainingTypesResponse{
		Department:    dept,
		TrainingTypes: make([]models.TrainingType, 0, len(types)),
	}
	for _, t := range types {
		resp.TrainingTypes = append(resp.TrainingTypes, models.TrainingType{
			Key:   t,
			Label: taxonomy.TrainingTypeLabel(t),
		})
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// ListSalesStages handles GET /sales-stages
func (h *ContainerHandler) ListSalesStages(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.SalesStagesResponse{Stages: models.SalesStages})
}

func (h *ContainerHandler) respondContainer(w http.ResponseWriter, r *http.Request, key string) {
	c, err := h.store.GetContainer(r.Context(), key)
	if err != nil {
		writeStoreError(w, err, "Failed to get container")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, c)
}

// writeStoreError maps store sentinel errors to status codes
func writeStoreError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, "Container not found")
	case errors.Is(err, db.ErrInvalidDecision), errors.Is(err, db.ErrInvalidStage),
		errors.Is(err, db.ErrInvalidAudience), errors.Is(err, db.ErrInvalidReasons):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error(msg, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msg)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
