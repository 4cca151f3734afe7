package forecast

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pharmacy/analytics/internal/application/analytics"
	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/domain/shared"
)

// Metric identifies a forecast series
type Metric string

// Tracked metrics
const (
	MetricRevenue   Metric = "revenue"
	MetricExpenses  Metric = "expenses"
	MetricPurchases Metric = "purchases"
	MetricNetProfit Metric = "net_profit"
)

// Metrics lists the tracked metrics in display order
var Metrics = []Metric{MetricRevenue, MetricExpenses, MetricPurchases, MetricNetProfit}

// Valid reports whether m is a tracked metric
func (m Metric) Valid() bool {
	for _, known := range Metrics {
		if m == known {
			return true
		}
	}
	return false
}

// Label returns the display name
func (m Metric) Label() string {
	switch m {
	case MetricRevenue:
		return "Revenue"
	case MetricExpenses:
		return "Expenses"
	case MetricPurchases:
		return "Purchases"
	case MetricNetProfit:
		return "Net Profit"
	}
	return string(m)
}

// value extracts the metric from a joined day
func (m Metric) value(d analytics.DailyMetric) float64 {
	switch m {
	case MetricRevenue:
		return d.Revenue
	case MetricExpenses:
		return d.Expenses
	case MetricPurchases:
		return d.Purchases
	case MetricNetProfit:
		return d.NetProfit
	}
	return 0
}

// observed reports whether the metric's own source had rows on that day
func (m Metric) observed(d analytics.DailyMetric) bool {
	switch m {
	case MetricRevenue:
		return d.IncomeRows > 0
	case MetricExpenses:
		return d.ExpenseRows > 0
	case MetricPurchases:
		return d.PurchaseRows > 0
	}
	return d.IncomeRows+d.ExpenseRows+d.PurchaseRows > 0
}

// Point is one day of a forecast. Actual is nil past the history.
type Point struct {
	Date    time.Time `json:"date"`
	YHat    float64   `json:"yhat"`
	Lower   float64   `json:"lower"`
	Upper   float64   `json:"upper"`
	Trend   float64   `json:"trend"`
	Weekly  float64   `json:"weekly"`
	Yearly  float64   `json:"yearly"`
	Monthly float64   `json:"monthly"`
	Actual  *float64  `json:"actual,omitempty"`
}

// MetricForecast is the outcome for one metric. Err is set instead of
// Points when the metric could not be fitted.
type MetricForecast struct {
	Metric   Metric              `json:"metric"`
	Label    string              `json:"label"`
	Points   []Point             `json:"points,omitempty"`
	RMSE     float64             `json:"rmse"`
	Accuracy *float64            `json:"accuracy"`
	Err      *shared.DomainError `json:"error,omitempty"`
}

// Forecast returns the points past the history end
func (f MetricForecast) Forecast() []Point {
	for i, p := range f.Points {
		if p.Actual == nil {
			return f.Points[i:]
		}
	}
	return nil
}

// Result holds every metric's forecast plus derived insights
type Result struct {
	Params   Params           `json:"params"`
	Metrics  []MetricForecast `json:"metrics"`
	Insights Insights         `json:"insights"`
}

// Metric returns the forecast for m
func (r *Result) Metric(m Metric) (MetricForecast, bool) {
	for _, f := range r.Metrics {
		if f.Metric == m {
			return f, true
		}
	}
	return MetricForecast{}, false
}

// Engine runs forecasts
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates a forecast engine
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// Run fits the four metrics in parallel. A metric with fewer than two
// observed days reports ErrInsufficientHistory without affecting the others.
func (e *Engine) Run(ctx context.Context, days []analytics.DailyMetric, p Params) (*Result, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start, series := dailySeries(days)
	result := &Result{Params: p, Metrics: make([]MetricForecast, len(Metrics))}

	g, gctx := errgroup.WithContext(ctx)
	for i, metric := range Metrics {
		g.Go(func() error {
			f, err := e.runMetric(gctx, metric, days, start, series[metric], p)
			if err != nil {
				return err
			}
			result.Metrics[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Insights = buildInsights(result, days, p.Horizon)
	e.logger.Debug("Forecast completed",
		zap.Int("history_days", len(series[MetricRevenue])),
		zap.Int("horizon", p.Horizon),
		zap.Float64("confidence", p.Confidence),
	)
	return result, nil
}

func (e *Engine) runMetric(
	ctx context.Context,
	metric Metric,
	days []analytics.DailyMetric,
	start time.Time,
	y []float64,
	p Params,
) (MetricForecast, error) {
	out := MetricForecast{Metric: metric, Label: metric.Label()}

	observed := 0
	for _, d := range days {
		if metric.observed(d) {
			observed++
		}
	}
	if observed < 2 {
		out.Err = ledger.ErrInsufficientHistory.WithDetails(map[string]any{
			"metric": string(metric), "points": observed,
		})
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	m, err := fit(y, start, p)
	if err != nil {
		e.logger.Warn("Forecast fit failed", zap.String("metric", string(metric)), zap.Error(err))
		out.Err = ledger.ErrInsufficientHistory.Wrapf("forecast for %s could not be fitted", metric).
			WithDetails(map[string]any{"metric": string(metric)})
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	z := zScore(p.Confidence)
	total := len(y) + p.Horizon
	out.Points = make([]Point, total)
	for i := 0; i < total; i++ {
		c := m.predict(i)
		half := m.halfWidth(z, i)
		pt := Point{
			Date:    start.AddDate(0, 0, i),
			YHat:    c.yhat,
			Lower:   c.yhat - half,
			Upper:   c.yhat + half,
			Trend:   c.trend,
			Weekly:  c.seasonal["weekly"],
			Yearly:  c.seasonal["yearly"],
			Monthly: c.seasonal["monthly"],
		}
		if i < len(y) {
			actual := y[i]
			pt.Actual = &actual
		}
		out.Points[i] = pt
	}

	out.RMSE = m.rmse
	if mean := analytics.Mean(y); mean != 0 {
		acc := analytics.Finite(1 - m.rmse/mean)
		out.Accuracy = &acc
	}
	return out, nil
}

// dailySeries lays each metric over every calendar day between the first
// and last joined date; days without rows are zero.
func dailySeries(days []analytics.DailyMetric) (time.Time, map[Metric][]float64) {
	series := make(map[Metric][]float64, len(Metrics))
	if len(days) == 0 {
		return time.Time{}, series
	}
	start := ledger.Day(days[0].Date)
	end := ledger.Day(days[len(days)-1].Date)
	n := int(end.Sub(start).Hours()/24) + 1
	for _, m := range Metrics {
		series[m] = make([]float64, n)
	}
	for _, d := range days {
		i := int(ledger.Day(d.Date).Sub(start).Hours() / 24)
		if i < 0 || i >= n {
			continue
		}
		for _, m := range Metrics {
			series[m][i] += m.value(d)
		}
	}
	return start, series
}
