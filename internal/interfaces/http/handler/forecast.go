package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmacy/analytics/internal/application/forecast"
	"github.com/pharmacy/analytics/internal/application/report"
	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/interfaces/http/dto"
)

// ForecastHandler serves forecasts and cross-correlation
type ForecastHandler struct {
	BaseHandler
	service  *report.DashboardService
	defaults forecast.Params
}

// NewForecastHandler creates a ForecastHandler. Parameters missing from a
// request are taken from defaults.
func NewForecastHandler(service *report.DashboardService, defaults forecast.Params) *ForecastHandler {
	return &ForecastHandler{service: service, defaults: defaults}
}

// Forecast handles GET /api/v1/forecast.
// Without a metric every tracked metric is returned, each carrying its own
// error when its history is too short. With a metric, a metric that cannot be
// fitted fails the request with 422.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var q dto.ForecastQuery
	if !h.BindQuery(c, &q) {
		return
	}
	result, err := h.service.Forecast(c.Request.Context(), q.ToRequest(), q.ToParams(h.defaults))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if q.Metric == "" {
		h.Success(c, result)
		return
	}

	mf, ok := result.Metric(forecast.Metric(q.Metric))
	if !ok {
		h.Error(c, http.StatusBadRequest, ledger.CodeInvalidForecast, "Unknown forecast metric")
		return
	}
	if mf.Err != nil {
		h.HandleError(c, mf.Err)
		return
	}
	h.Success(c, mf)
}

// CrossCorrelation handles GET /api/v1/forecast/cross-correlation
func (h *ForecastHandler) CrossCorrelation(c *gin.Context) {
	var q dto.CrossCorrelationQuery
	if !h.BindQuery(c, &q) {
		return
	}
	minLag, maxLag := q.Lags()
	result, err := h.service.CrossCorrelation(c.Request.Context(), q.ToRequest(), q.ReferenceMetric(), minLag, maxLag)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
