package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Finite maps NaN and ±Inf to 0 so they never reach a caller
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Percent returns part/whole*100, or 0 unless whole is positive
func Percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return Finite(part / whole * 100)
}

// Ratio returns a/b, or 0 unless b is positive
func Ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return Finite(a / b)
}

// Sum of the values
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x)
}

// Mean of the values, 0 when empty
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return Finite(stat.Mean(x, nil))
}

// StdDev is the sample (n-1) standard deviation, 0 when fewer than two values
func StdDev(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	return Finite(stat.StdDev(x, nil))
}

// Max of the values, 0 when empty
func Max(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Max(x)
}

// Min of the values, 0 when empty
func Min(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Min(x)
}

// Volatility is the coefficient of variation std/mean using the sample std
func Volatility(x []float64) float64 {
	m := Mean(x)
	if m == 0 {
		return 0
	}
	return Finite(StdDev(x) / m)
}

// Skewness is the adjusted Fisher-Pearson coefficient G1.
// It is 0 for fewer than three values or constant data.
func Skewness(x []float64) float64 {
	if len(x) < 3 || StdDev(x) == 0 {
		return 0
	}
	return Finite(stat.Skew(x, nil))
}

// Correlation is Pearson's r, 0 when either side has no variance
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if StdDev(x) == 0 || StdDev(y) == 0 {
		return 0
	}
	return Finite(stat.Correlation(x, y, nil))
}

// Quantile uses linear interpolation between closest ranks (numpy's default).
// gonum's LinInterp estimator differs, so it is computed here.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Sorted returns an ascending copy
func Sorted(x []float64) []float64 {
	out := append([]float64(nil), x...)
	sort.Float64s(out)
	return out
}

// CorrelationMatrix is a labelled square matrix of Pearson coefficients
type CorrelationMatrix struct {
	Labels []string    `json:"labels"`
	Values [][]float64 `json:"values"`
}

// Correlate builds the matrix for the given columns; the diagonal is 1
// for columns with variance and 0 otherwise.
func Correlate(labels []string, columns [][]float64) CorrelationMatrix {
	m := CorrelationMatrix{Labels: labels, Values: make([][]float64, len(columns))}
	for i := range columns {
		m.Values[i] = make([]float64, len(columns))
		for j := range columns {
			m.Values[i][j] = Correlation(columns[i], columns[j])
		}
	}
	return m
}
