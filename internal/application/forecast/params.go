// Package forecast fits an additive trend plus seasonality model to each
// tracked daily metric and projects it over a horizon with confidence bands.
package forecast

import (
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// Parameter bounds
const (
	MinHorizon    = 7
	MaxHorizon    = 90
	MinConfidence = 0.80
	MaxConfidence = 0.99
	MaxLag        = 30
)

// Params configures a forecast run. Zero values take the defaults.
type Params struct {
	Horizon               int     `json:"horizon"`
	Confidence            float64 `json:"confidence"`
	ChangepointPriorScale float64 `json:"changepoint_prior_scale"`
	NChangepoints         int     `json:"n_changepoints"`
	ChangepointRange      float64 `json:"changepoint_range"`
}

// DefaultParams returns the stock configuration
func DefaultParams() Params {
	return Params{
		Horizon:               30,
		Confidence:            0.95,
		ChangepointPriorScale: 0.05,
		NChangepoints:         25,
		ChangepointRange:      0.8,
	}
}

// WithDefaults fills zero fields from DefaultParams
func (p Params) WithDefaults() Params {
	def := DefaultParams()
	if p.Horizon == 0 {
		p.Horizon = def.Horizon
	}
	if p.Confidence == 0 {
		p.Confidence = def.Confidence
	}
	if p.ChangepointPriorScale == 0 {
		p.ChangepointPriorScale = def.ChangepointPriorScale
	}
	if p.NChangepoints == 0 {
		p.NChangepoints = def.NChangepoints
	}
	if p.ChangepointRange == 0 {
		p.ChangepointRange = def.ChangepointRange
	}
	return p
}

// Validate checks every field against its allowed range
func (p Params) Validate() error {
	switch {
	case p.Horizon < MinHorizon || p.Horizon > MaxHorizon:
		return ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "horizon", "value": p.Horizon, "min": MinHorizon, "max": MaxHorizon,
		})
	case p.Confidence < MinConfidence || p.Confidence > MaxConfidence:
		return ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "confidence", "value": p.Confidence, "min": MinConfidence, "max": MaxConfidence,
		})
	case p.ChangepointPriorScale <= 0:
		return ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "changepoint_prior_scale", "value": p.ChangepointPriorScale,
		})
	case p.NChangepoints < 0:
		return ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "n_changepoints", "value": p.NChangepoints,
		})
	case p.ChangepointRange <= 0 || p.ChangepointRange > 1:
		return ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "changepoint_range", "value": p.ChangepointRange,
		})
	}
	return nil
}
