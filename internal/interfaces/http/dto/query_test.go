package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/application/forecast"
)

func TestFilterQuery_ToRequest(t *testing.T) {
	t.Run("explicit dates select the custom window", func(t *testing.T) {
		req := FilterQuery{Start: "2024-01-05", End: "2024-01-10", Month: 1, Company: "Acme"}.ToRequest()

		assert.Equal(t, filter.PresetCustom, req.Preset)
		require.NotNil(t, req.Start)
		require.NotNil(t, req.End)
		assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), *req.Start)
		assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *req.End)
		assert.Equal(t, 1, req.Month)
		assert.Equal(t, "Acme", req.Company)
	})

	t.Run("preset wins over dates", func(t *testing.T) {
		req := FilterQuery{Preset: "last_7_days", Start: "2024-01-05"}.ToRequest()
		assert.Equal(t, filter.PresetLast7Days, req.Preset)
	})

	t.Run("empty query leaves the preset unset", func(t *testing.T) {
		req := FilterQuery{}.ToRequest()
		assert.Equal(t, filter.Preset(""), req.Preset)
		assert.Nil(t, req.Start)
		assert.Nil(t, req.End)
	})
}

func TestForecastQuery_ToParams(t *testing.T) {
	defaults := forecast.DefaultParams()

	p := ForecastQuery{}.ToParams(defaults)
	assert.Equal(t, defaults, p)

	p = ForecastQuery{Horizon: 14, Confidence: 0.9}.ToParams(defaults)
	assert.Equal(t, 14, p.Horizon)
	assert.InDelta(t, 0.9, p.Confidence, 1e-9)
	assert.Equal(t, defaults.NChangepoints, p.NChangepoints)
}

func TestCrossCorrelationQuery(t *testing.T) {
	q := CrossCorrelationQuery{}
	minLag, maxLag := q.Lags()
	assert.Equal(t, -forecast.MaxLag, minLag)
	assert.Equal(t, forecast.MaxLag, maxLag)
	assert.Equal(t, forecast.MetricRevenue, q.ReferenceMetric())

	lo, hi := -3, 5
	q = CrossCorrelationQuery{Reference: "expenses", MinLag: &lo, MaxLag: &hi}
	minLag, maxLag = q.Lags()
	assert.Equal(t, -3, minLag)
	assert.Equal(t, 5, maxLag)
	assert.Equal(t, forecast.MetricExpenses, q.ReferenceMetric())
}

func TestSearchQuery_ToSearch(t *testing.T) {
	lo := 100.0
	s := SearchQuery{Text: "amox", InvoiceID: "INV-1", Company: "Acme", Type: "Drugs", MinAmount: &lo}.ToSearch()

	assert.Equal(t, "amox", s.Text)
	assert.Equal(t, "INV-1", s.InvoiceID)
	assert.Equal(t, "Acme", s.Company)
	assert.Equal(t, "Drugs", s.Type)
	require.NotNil(t, s.MinAmount)
	assert.InDelta(t, 100.0, *s.MinAmount, 1e-9)
	assert.Nil(t, s.MaxAmount)
}
