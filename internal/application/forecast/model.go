package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pharmacy/analytics/internal/application/analytics"
)

const (
	// priors expressed as ridge weights 1/(2·scale²)
	trendPenalty    = 1.0 / (2 * 5 * 5)
	seasonalPenalty = 1.0 / (2 * 10 * 10)
	secondsPerDay   = 24 * 60 * 60
)

type seasonality struct {
	name   string
	period float64
	order  int
}

// Daily seasonality (period 1, order 4) is constant at a one-day step and
// folds into the intercept, so it has no columns here. A seasonality is
// fitted only when the history spans at least two of its periods.
var seasonalities = []seasonality{
	{name: "yearly", period: 365.25, order: 10},
	{name: "weekly", period: 7, order: 3},
	{name: "monthly", period: 30.5, order: 5},
}

// model is a fitted piecewise-linear trend with Fourier seasonalities.
// Time is scaled to [0,1] over the history and y by max|y|.
type model struct {
	start        time.Time
	n            int
	tScale       float64
	yScale       float64
	changepoints []float64
	seasons      []seasonality
	beta         []float64
	sigma        float64
	rmse         float64
}

// fit solves the penalized least-squares problem for one zero-filled daily series
func fit(y []float64, start time.Time, p Params) (*model, error) {
	n := len(y)
	if n < 2 {
		return nil, fmt.Errorf("fit needs at least two points, got %d", n)
	}

	m := &model{start: start, n: n, tScale: float64(n - 1), yScale: 1}
	if scale := maxAbs(y); scale > 0 {
		m.yScale = scale
	}
	m.changepoints = changepoints(n, p.NChangepoints, p.ChangepointRange)
	for _, s := range seasonalities {
		if m.tScale >= 2*s.period {
			m.seasons = append(m.seasons, s)
		}
	}

	cols := m.width()
	x := mat.NewDense(n, cols, nil)
	ys := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		x.SetRow(i, m.features(i))
		ys.SetVec(i, y[i]/m.yScale)
	}

	var a mat.Dense
	a.Mul(x.T(), x)
	for j, w := range m.penalties(p.ChangepointPriorScale) {
		a.Set(j, j, a.At(j, j)+w)
	}
	var b mat.VecDense
	b.MulVec(x.T(), ys)

	var beta mat.VecDense
	if err := beta.SolveVec(&a, &b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve normal equations: %w", err)
		}
	}
	m.beta = make([]float64, cols)
	for j := range m.beta {
		m.beta[j] = beta.AtVec(j)
	}

	residuals := make([]float64, n)
	var sq float64
	for i := 0; i < n; i++ {
		residuals[i] = y[i] - m.predict(i).yhat
		sq += residuals[i] * residuals[i]
	}
	m.rmse = analytics.Finite(math.Sqrt(sq / float64(n)))
	m.sigma = analytics.Finite(stat.StdDev(residuals, nil))
	return m, nil
}

func maxAbs(y []float64) float64 {
	var out float64
	for _, v := range y {
		if a := math.Abs(v); a > out {
			out = a
		}
	}
	return out
}

// changepoints places candidates evenly over the first rangeFrac of the
// history, never on the first point.
func changepoints(n, requested int, rangeFrac float64) []float64 {
	histSize := int(math.Floor(float64(n) * rangeFrac))
	count := requested
	if count+1 > histSize {
		count = histSize - 1
	}
	if count <= 0 {
		return nil
	}
	out := make([]float64, count)
	step := float64(histSize-1) / float64(count)
	for j := 1; j <= count; j++ {
		idx := math.Round(float64(j) * step)
		out[j-1] = idx / float64(n-1)
	}
	return out
}

func (m *model) width() int {
	w := 2 + len(m.changepoints)
	for _, s := range m.seasons {
		w += 2 * s.order
	}
	return w
}

func (m *model) penalties(priorScale float64) []float64 {
	out := make([]float64, 0, m.width())
	out = append(out, trendPenalty, trendPenalty)
	delta := 1 / (2 * priorScale * priorScale)
	for range m.changepoints {
		out = append(out, delta)
	}
	for _, s := range m.seasons {
		for k := 0; k < 2*s.order; k++ {
			out = append(out, seasonalPenalty)
		}
	}
	return out
}

// features returns the design row for day offset i from the history start
func (m *model) features(i int) []float64 {
	t := float64(i) / m.tScale
	row := make([]float64, 0, m.width())
	row = append(row, 1, t)
	for _, s := range m.changepoints {
		row = append(row, math.Max(t-s, 0))
	}
	day := float64(m.start.Unix()/secondsPerDay + int64(i))
	for _, s := range m.seasons {
		for k := 1; k <= s.order; k++ {
			arg := 2 * math.Pi * float64(k) * day / s.period
			row = append(row, math.Sin(arg), math.Cos(arg))
		}
	}
	return row
}

type components struct {
	yhat     float64
	trend    float64
	seasonal map[string]float64
}

func (m *model) predict(i int) components {
	row := m.features(i)
	c := components{seasonal: make(map[string]float64, len(m.seasons))}

	trendCols := 2 + len(m.changepoints)
	for j := 0; j < trendCols; j++ {
		c.trend += row[j] * m.beta[j]
	}
	c.trend *= m.yScale

	col := trendCols
	for _, s := range m.seasons {
		var v float64
		for k := 0; k < 2*s.order; k++ {
			v += row[col] * m.beta[col]
			col++
		}
		c.seasonal[s.name] = v * m.yScale
	}

	c.yhat = c.trend
	for _, s := range m.seasons {
		c.yhat += c.seasonal[s.name]
	}
	c.yhat = analytics.Finite(c.yhat)
	return c
}

// halfWidth widens with the distance h past the end of the history
func (m *model) halfWidth(z float64, i int) float64 {
	h := i - (m.n - 1)
	if h < 0 {
		h = 0
	}
	return analytics.Finite(z * m.sigma * math.Sqrt(1+float64(h)/float64(m.n)))
}

// zScore is the two-sided normal quantile for the confidence level
func zScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile((1 + confidence) / 2)
}
