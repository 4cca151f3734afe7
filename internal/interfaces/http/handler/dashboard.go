package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/pharmacy/analytics/internal/application/analytics"
	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
)

// DashboardHandler serves the dashboard tabs over the filtered snapshot
type DashboardHandler struct {
	BaseHandler
	service *report.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(service *report.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// OverviewResponse is the overview tab: KPIs, health notices and the joined daily series
type OverviewResponse struct {
	Overview analytics.Overview       `json:"overview"`
	Cards    []analytics.KPICard      `json:"cards"`
	Health   []analytics.HealthNotice `json:"health"`
	Daily    []analytics.DailyMetric  `json:"daily"`
}

func windowMeta(w filter.Window, empty bool) *dto.Meta {
	return &dto.Meta{Window: &w, Empty: empty}
}

// build binds the filter query and runs the dashboard pipeline
func (h *DashboardHandler) build(c *gin.Context) (*report.ViewModel, bool) {
	var q dto.FilterQuery
	if !h.BindQuery(c, &q) {
		return nil, false
	}
	vm, err := h.service.Build(c.Request.Context(), q.ToRequest())
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return vm, true
}

// Overview handles GET /api/v1/dashboard/overview
func (h *DashboardHandler) Overview(c *gin.Context) {
	vm, ok := h.build(c)
	if !ok {
		return
	}
	h.SuccessWithMeta(c, OverviewResponse{
		Overview: vm.Overview,
		Cards:    analytics.Cards(vm.Overview),
		Health:   vm.Health,
		Daily:    vm.Daily,
	}, windowMeta(vm.Window, vm.Empty))
}

// Revenue handles GET /api/v1/dashboard/revenue
func (h *DashboardHandler) Revenue(c *gin.Context) {
	vm, ok := h.build(c)
	if !ok {
		return
	}
	h.SuccessWithMeta(c, vm.Revenue, windowMeta(vm.Window, vm.Empty))
}

// Inventory handles GET /api/v1/dashboard/inventory
func (h *DashboardHandler) Inventory(c *gin.Context) {
	vm, ok := h.build(c)
	if !ok {
		return
	}
	h.SuccessWithMeta(c, vm.Inventory, windowMeta(vm.Window, vm.Empty))
}

// Expenses handles GET /api/v1/dashboard/expenses
func (h *DashboardHandler) Expenses(c *gin.Context) {
	vm, ok := h.build(c)
	if !ok {
		return
	}
	h.SuccessWithMeta(c, vm.Expenses, windowMeta(vm.Window, vm.Empty))
}

// Analytics handles GET /api/v1/dashboard/analytics
func (h *DashboardHandler) Analytics(c *gin.Context) {
	var q dto.FilterQuery
	if !h.BindQuery(c, &q) {
		return
	}
	view, err := h.service.Analytics(c.Request.Context(), q.ToRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, view, windowMeta(view.Window, view.Empty))
}

// Options handles GET /api/v1/filters/options
func (h *DashboardHandler) Options(c *gin.Context) {
	choices, err := h.service.Options(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, choices)
}

// Search handles GET /api/v1/inventory/search
func (h *DashboardHandler) Search(c *gin.Context) {
	var q dto.SearchQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.Search(c.Request.Context(), q.ToRequest(), q.ToSearch())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result, &dto.Meta{Total: len(result.Rows), Empty: len(result.Rows) == 0})
}
