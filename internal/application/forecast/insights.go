package forecast

import (
	"time"

	"github.com/pharmacy/analytics/internal/application/analytics"
)

// Growth compares the final forecast point with the last actual value
type Growth struct {
	Metric       Metric  `json:"metric"`
	LastActual   float64 `json:"last_actual"`
	LastForecast float64 `json:"last_forecast"`
	Delta        float64 `json:"delta"`
	Percent      float64 `json:"percent"`
}

// Trend compares the mean forecast over the horizon with the mean of the
// same number of trailing actuals.
type Trend struct {
	Metric      Metric  `json:"metric"`
	ForecastAvg float64 `json:"forecast_avg"`
	CurrentAvg  float64 `json:"current_avg"`
	ChangePct   float64 `json:"change_pct"`
}

// CostImpact projects expenses plus purchases over the horizon
type CostImpact struct {
	ProjectedCost      float64 `json:"projected_cost"`
	CurrentCost        float64 `json:"current_cost"`
	ChangePct          float64 `json:"change_pct"`
	ProjectedCostRatio float64 `json:"projected_cost_ratio"`
	CurrentCostRatio   float64 `json:"current_cost_ratio"`
	RatioChangePoints  float64 `json:"ratio_change_points"`
}

// WeeklyPattern is the mean of a metric per weekday, Monday first
type WeeklyPattern struct {
	Metric Metric                 `json:"metric"`
	Days   []analytics.GroupValue `json:"days"`
}

// Insights summarizes a forecast run
type Insights struct {
	Growth         []Growth                    `json:"growth"`
	Trends         []Trend                     `json:"trends"`
	CostImpact     *CostImpact                 `json:"cost_impact,omitempty"`
	WeeklyPatterns []WeeklyPattern             `json:"weekly_patterns"`
	Correlation    analytics.CorrelationMatrix `json:"correlation"`
}

func buildInsights(r *Result, days []analytics.DailyMetric, horizon int) Insights {
	var in Insights
	for _, f := range r.Metrics {
		if f.Err != nil {
			continue
		}
		actuals := actualValues(f)
		future := yhatValues(f.Forecast())
		if len(actuals) == 0 || len(future) == 0 {
			continue
		}

		last := actuals[len(actuals)-1]
		final := future[len(future)-1]
		in.Growth = append(in.Growth, Growth{
			Metric:       f.Metric,
			LastActual:   last,
			LastForecast: final,
			Delta:        final - last,
			Percent:      changePct(final, last),
		})

		forecastAvg := analytics.Mean(tail(future, horizon))
		currentAvg := analytics.Mean(tail(actuals, horizon))
		in.Trends = append(in.Trends, Trend{
			Metric:      f.Metric,
			ForecastAvg: forecastAvg,
			CurrentAvg:  currentAvg,
			ChangePct:   changePct(forecastAvg, currentAvg),
		})
	}

	in.CostImpact = costImpact(r, horizon)

	columns := make([][]float64, len(Metrics))
	labels := make([]string, len(Metrics))
	for i, m := range Metrics {
		labels[i] = string(m)
		columns[i] = MetricSeries(days, m)
		in.WeeklyPatterns = append(in.WeeklyPatterns, weeklyPattern(m, days))
	}
	in.Correlation = analytics.Correlate(labels, columns)
	return in
}

func costImpact(r *Result, horizon int) *CostImpact {
	revenue, okR := r.Metric(MetricRevenue)
	expenses, okE := r.Metric(MetricExpenses)
	purchases, okP := r.Metric(MetricPurchases)
	if !okR || !okE || !okP || revenue.Err != nil || expenses.Err != nil || purchases.Err != nil {
		return nil
	}

	projected := analytics.Sum(tail(yhatValues(expenses.Forecast()), horizon)) +
		analytics.Sum(tail(yhatValues(purchases.Forecast()), horizon))
	current := analytics.Sum(tail(actualValues(expenses), horizon)) +
		analytics.Sum(tail(actualValues(purchases), horizon))
	projectedRevenue := analytics.Sum(tail(yhatValues(revenue.Forecast()), horizon))
	currentRevenue := analytics.Sum(tail(actualValues(revenue), horizon))

	c := &CostImpact{
		ProjectedCost:      projected,
		CurrentCost:        current,
		ChangePct:          changePct(projected, current),
		ProjectedCostRatio: analytics.Ratio(projected, projectedRevenue),
		CurrentCostRatio:   analytics.Ratio(current, currentRevenue),
	}
	c.RatioChangePoints = (c.ProjectedCostRatio - c.CurrentCostRatio) * 100
	return c
}

func weeklyPattern(m Metric, days []analytics.DailyMetric) WeeklyPattern {
	byDay := make(map[time.Weekday][]float64)
	for _, d := range days {
		byDay[d.Date.Weekday()] = append(byDay[d.Date.Weekday()], m.value(d))
	}
	p := WeeklyPattern{Metric: m}
	for _, wd := range analytics.WeekdayOrder {
		values, ok := byDay[wd]
		if !ok {
			continue
		}
		p.Days = append(p.Days, analytics.GroupValue{Key: wd.String(), Value: analytics.Mean(values)})
	}
	return p
}

// changePct is the relative change from base, 0 when base is 0
func changePct(value, base float64) float64 {
	if base == 0 {
		return 0
	}
	return analytics.Finite((value - base) / base * 100)
}

func tail(x []float64, n int) []float64 {
	if n >= len(x) {
		return x
	}
	return x[len(x)-n:]
}

func actualValues(f MetricForecast) []float64 {
	var out []float64
	for _, p := range f.Points {
		if p.Actual != nil {
			out = append(out, *p.Actual)
		}
	}
	return out
}

func yhatValues(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.YHat
	}
	return out
}
