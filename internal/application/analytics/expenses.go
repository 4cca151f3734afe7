package analytics

import (
	"time"

	"github.com/pharmacy/analytics/internal/application/filter"
)

// ExpenseAnalysis backs the expenses tab
type ExpenseAnalysis struct {
	Total         float64           `json:"total"`
	Mean          float64           `json:"mean"`
	Types         int               `json:"types"`
	ExpenseRatio  float64           `json:"expense_ratio"`
	Distribution  []GroupTotal      `json:"distribution"`
	MonthlyByType []MonthlyCategory `json:"monthly_by_type"`
	Daily         []DailyAmount     `json:"daily"`
}

// Expenses analyzes the expenses table of the view. Distribution is
// ordered by amount, smallest first.
func Expenses(v filter.View) ExpenseAnalysis {
	amounts := make([]float64, len(v.Expenses))
	byType := newGrouper()
	for i, e := range v.Expenses {
		amounts[i] = e.ExpenseAmount
		byType.add(e.ExpenseType, e.ExpenseAmount)
	}
	total := Sum(amounts)
	income := Sum(incomeColumn(v, func(r incomeRow) float64 { return r.Total }))

	return ExpenseAnalysis{
		Total:        total,
		Mean:         Mean(amounts),
		Types:        len(byType.order),
		ExpenseRatio: Percent(total, income),
		Distribution: sortByAmount(byType.totals(), false),
		MonthlyByType: monthlyByCategory(func(emit func(time.Time, string, float64)) {
			for _, e := range v.Expenses {
				emit(e.Date, e.ExpenseType, e.ExpenseAmount)
			}
		}),
		Daily: dailyAmounts(func(emit func(time.Time, float64)) {
			for _, e := range v.Expenses {
				emit(e.Date, e.ExpenseAmount)
			}
		}),
	}
}
