package dto

import (
	"time"

	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/application/forecast"
)

// DateLayout is the only date format accepted in query strings
const DateLayout = "2006-01-02"

// FilterQuery is the common filter query shared by every dashboard endpoint.
// Only formats are checked here; ranges are validated by the filter engine.
type FilterQuery struct {
	Preset        string `form:"preset" binding:"omitempty,oneof=custom last_7_days last_30_days last_90_days year_to_date all_time"`
	Start         string `form:"start" binding:"omitempty,datetime=2006-01-02"`
	End           string `form:"end" binding:"omitempty,datetime=2006-01-02"`
	Month         int    `form:"month"`
	InventoryType string `form:"inventory_type"`
	Company       string `form:"company"`
	ExpenseType   string `form:"expense_type"`
}

// ToRequest converts the query to a filter request.
// Explicit dates without a preset select the custom window.
func (q FilterQuery) ToRequest() filter.Request {
	req := filter.Request{
		Preset:        filter.Preset(q.Preset),
		Start:         parseDate(q.Start),
		End:           parseDate(q.End),
		Month:         q.Month,
		InventoryType: q.InventoryType,
		Company:       q.Company,
		ExpenseType:   q.ExpenseType,
	}
	if req.Preset == "" && (req.Start != nil || req.End != nil) {
		req.Preset = filter.PresetCustom
	}
	return req
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

// ForecastQuery selects a forecast run on top of the filter
type ForecastQuery struct {
	FilterQuery
	Metric     string  `form:"metric" binding:"omitempty,oneof=revenue expenses purchases net_profit"`
	Horizon    int     `form:"horizon"`
	Confidence float64 `form:"confidence"`
}

// ToParams builds forecast parameters, taking defaults for fields left at zero
func (q ForecastQuery) ToParams(defaults forecast.Params) forecast.Params {
	p := defaults
	if q.Horizon != 0 {
		p.Horizon = q.Horizon
	}
	if q.Confidence != 0 {
		p.Confidence = q.Confidence
	}
	return p
}

// CrossCorrelationQuery selects the reference metric and lag range
type CrossCorrelationQuery struct {
	FilterQuery
	Reference string `form:"reference" binding:"omitempty,oneof=revenue expenses purchases net_profit"`
	MinLag    *int   `form:"min_lag"`
	MaxLag    *int   `form:"max_lag"`
}

// Lags returns the requested lag range, defaulting to the full symmetric range
func (q CrossCorrelationQuery) Lags() (int, int) {
	minLag, maxLag := -forecast.MaxLag, forecast.MaxLag
	if q.MinLag != nil {
		minLag = *q.MinLag
	}
	if q.MaxLag != nil {
		maxLag = *q.MaxLag
	}
	return minLag, maxLag
}

// ReferenceMetric returns the reference metric, revenue when unset
func (q CrossCorrelationQuery) ReferenceMetric() forecast.Metric {
	if q.Reference == "" {
		return forecast.MetricRevenue
	}
	return forecast.Metric(q.Reference)
}

// SearchQuery is the inventory search query
type SearchQuery struct {
	FilterQuery
	Text      string   `form:"q"`
	InvoiceID string   `form:"invoice_id"`
	Company   string   `form:"search_company"`
	Type      string   `form:"search_type"`
	MinAmount *float64 `form:"min_amount" binding:"omitempty,gte=0"`
	MaxAmount *float64 `form:"max_amount" binding:"omitempty,gte=0"`
}

// ToSearch converts the query to a purchase search
func (q SearchQuery) ToSearch() filter.SearchQuery {
	return filter.SearchQuery{
		Text:      q.Text,
		InvoiceID: q.InvoiceID,
		Company:   q.Company,
		Type:      q.Type,
		MinAmount: q.MinAmount,
		MaxAmount: q.MaxAmount,
	}
}
