package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/infrastructure/scheduler"
	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
)

// RefreshRunner reloads the dataset on demand
type RefreshRunner interface {
	RunNow(ctx context.Context) (*scheduler.RunRecord, error)
}

// DatasetHandler describes and reloads the loaded workbook snapshot
type DatasetHandler struct {
	BaseHandler
	service *report.DashboardService
	runner  RefreshRunner
}

// NewDatasetHandler creates a new DatasetHandler
func NewDatasetHandler(service *report.DashboardService, runner RefreshRunner) *DatasetHandler {
	return &DatasetHandler{service: service, runner: runner}
}

// RefreshResponse reports a forced reload
type RefreshResponse struct {
	Run     *scheduler.RunRecord `json:"run"`
	Dataset *report.DatasetInfo  `json:"dataset"`
}

// Get handles GET /api/v1/dataset
func (h *DatasetHandler) Get(c *gin.Context) {
	info, err := h.service.Dataset(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Refresh handles POST /api/v1/dataset/refresh.
// A failed reload leaves the previous snapshot in place.
func (h *DatasetHandler) Refresh(c *gin.Context) {
	run, err := h.runner.RunNow(c.Request.Context())
	if errors.Is(err, scheduler.ErrRefreshInProgress) {
		h.Error(c, http.StatusConflict, dto.ErrCodeConflict, "A dataset refresh is already running")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	info, err := h.service.Dataset(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, RefreshResponse{Run: run, Dataset: info})
}
