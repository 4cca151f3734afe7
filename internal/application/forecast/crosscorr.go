package forecast

import (
	"github.com/pharmacy/analytics/internal/application/analytics"
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// LagCorrelation is the Pearson coefficient at one lag
type LagCorrelation struct {
	Lag         int     `json:"lag"`
	Correlation float64 `json:"correlation"`
	Pairs       int     `json:"pairs"`
}

// CrossCorrelation correlates ref[t] with other[t+lag] for each lag in
// [minLag, maxLag]. A negative lag means other leads ref. Lags with fewer
// than two overlapping pairs or no variance report 0.
func CrossCorrelation(ref, other []float64, minLag, maxLag int) ([]LagCorrelation, error) {
	if minLag < -MaxLag || maxLag > MaxLag || minLag > maxLag {
		return nil, ledger.ErrInvalidForecast.WithDetails(map[string]any{
			"field": "lag", "min_lag": minLag, "max_lag": maxLag, "limit": MaxLag,
		})
	}

	n := len(ref)
	if len(other) < n {
		n = len(other)
	}
	out := make([]LagCorrelation, 0, maxLag-minLag+1)
	for lag := minLag; lag <= maxLag; lag++ {
		var xs, ys []float64
		for t := 0; t < n; t++ {
			j := t + lag
			if j < 0 || j >= n {
				continue
			}
			xs = append(xs, ref[t])
			ys = append(ys, other[j])
		}
		out = append(out, LagCorrelation{Lag: lag, Correlation: analytics.Correlation(xs, ys), Pairs: len(xs)})
	}
	return out, nil
}

// MetricSeries extracts one metric per joined day
func MetricSeries(days []analytics.DailyMetric, m Metric) []float64 {
	out := make([]float64, len(days))
	for i, d := range days {
		out[i] = m.value(d)
	}
	return out
}
