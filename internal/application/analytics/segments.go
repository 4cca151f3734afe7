package analytics

import (
	"sort"

	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/domain/shared"
)

// SegmentLabels names the four revenue quartiles, lowest first
var SegmentLabels = []string{"Low", "Medium-Low", "Medium-High", "High"}

// ErrNotEnoughDistinct is returned when quartile edges cannot be separated
var ErrNotEnoughDistinct = shared.NewDomainError("NOT_ENOUGH_DISTINCT", "at least four distinct values are required for segmentation")

// SegmentStats aggregates the daily-income rows of one quartile
type SegmentStats struct {
	Label     string  `json:"label"`
	Count     int     `json:"count"`
	TotalMean float64 `json:"total_mean"`
	TotalSum  float64 `json:"total_sum"`
	CashSum   float64 `json:"cash_sum"`
	VisaSum   float64 `json:"visa_sum"`
	DueSum    float64 `json:"due_sum"`
}

// Segment assigns each value a quartile index 0..3.
//
// Edges are the linear-interpolated quartiles; the first bin includes the
// minimum. When ties collapse an edge or leave a bin empty, values are split
// by rank instead, ties broken by position, so every bin stays populated.
func Segment(values []float64) ([]int, error) {
	distinct := make(map[float64]struct{}, len(values))
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	if len(distinct) < len(SegmentLabels) {
		return nil, ErrNotEnoughDistinct.WithDetails(map[string]any{"distinct": len(distinct)})
	}

	sorted := Sorted(values)
	edges := []float64{
		sorted[0],
		Quantile(sorted, 0.25),
		Quantile(sorted, 0.50),
		Quantile(sorted, 0.75),
		sorted[len(sorted)-1],
	}
	if out, ok := segmentByEdges(values, edges); ok {
		return out, nil
	}
	return segmentByRank(values), nil
}

func segmentByEdges(values, edges []float64) ([]int, bool) {
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return nil, false
		}
	}
	out := make([]int, len(values))
	counts := make([]int, len(SegmentLabels))
	for i, v := range values {
		seg := len(SegmentLabels) - 1
		for b := 1; b < len(edges)-1; b++ {
			if v <= edges[b] {
				seg = b - 1
				break
			}
		}
		out[i] = seg
		counts[seg]++
	}
	for _, c := range counts {
		if c == 0 {
			return nil, false
		}
	}
	return out, true
}

func segmentByRank(values []float64) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	out := make([]int, len(values))
	n := len(values)
	for pos, i := range idx {
		out[i] = pos * len(SegmentLabels) / n
	}
	return out
}

// SegmentRevenue splits daily-income rows into revenue quartiles
func SegmentRevenue(rows []ledger.DailyIncome) ([]SegmentStats, error) {
	totals := columnOf(rows, func(r incomeRow) float64 { return r.Total })
	assigned, err := Segment(totals)
	if err != nil {
		return nil, err
	}

	stats := make([]SegmentStats, len(SegmentLabels))
	for i, label := range SegmentLabels {
		stats[i].Label = label
	}
	for i, r := range rows {
		s := &stats[assigned[i]]
		s.Count++
		s.TotalSum += r.Total
		s.CashSum += r.Cash
		s.VisaSum += r.Visa
		s.DueSum += r.DueAmount
	}
	for i := range stats {
		stats[i].TotalMean = Ratio(stats[i].TotalSum, float64(stats[i].Count))
	}
	return stats, nil
}
