package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

type incomeRow = ledger.DailyIncome

func incomeColumn(v filter.View, f func(incomeRow) float64) []float64 {
	return columnOf(v.DailyIncome, f)
}

// incomeByDate returns the daily-income rows in date order, stable within a day
func incomeByDate(v filter.View) []incomeRow {
	rows := append([]incomeRow(nil), v.DailyIncome...)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// WeekKey formats the Monday-based week of year as YYYY-WW. Days before the
// first Monday of the year fall in week 00.
func WeekKey(t time.Time) string {
	weekdayFromMonday := (int(t.Weekday()) + 6) % 7
	week := (t.YearDay() + 6 - weekdayFromMonday) / 7
	return fmt.Sprintf("%04d-%02d", t.Year(), week)
}

// WeekdayOrder lists the days of the week Monday first
var WeekdayOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// DailyMetric is one calendar day of the joined tables
type DailyMetric struct {
	Date      time.Time `json:"date"`
	Revenue   float64   `json:"revenue"`
	Expenses  float64   `json:"expenses"`
	Purchases float64   `json:"purchases"`
	NetProfit float64   `json:"net_profit"`
	Cash      float64   `json:"cash"`
	Visa      float64   `json:"visa"`
	Due       float64   `json:"due"`
	Deficit   float64   `json:"deficit"`

	IncomeRows   int `json:"income_rows"`
	ExpenseRows  int `json:"expense_rows"`
	PurchaseRows int `json:"purchase_rows"`
}

// DailyMetrics outer-joins the three tables on date. Every date present in
// any table appears once, ascending; missing sides are zero.
func DailyMetrics(v filter.View) []DailyMetric {
	byDay := make(map[time.Time]*DailyMetric)
	get := func(d time.Time) *DailyMetric {
		m, ok := byDay[d]
		if !ok {
			m = &DailyMetric{Date: d}
			byDay[d] = m
		}
		return m
	}
	for _, r := range v.DailyIncome {
		m := get(r.Date)
		m.Revenue += r.Total
		m.Cash += r.Cash
		m.Visa += r.Visa
		m.Due += r.DueAmount
		m.Deficit += r.Deficit
		m.IncomeRows++
	}
	for _, e := range v.Expenses {
		m := get(e.Date)
		m.Expenses += e.ExpenseAmount
		m.ExpenseRows++
	}
	for _, p := range v.Inventory {
		m := get(p.Date)
		m.Purchases += p.InvoiceAmount
		m.PurchaseRows++
	}

	out := make([]DailyMetric, 0, len(byDay))
	for _, m := range byDay {
		m.NetProfit = m.Revenue - m.Expenses - m.Purchases
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// GroupTotal is an amount and row count for one category
type GroupTotal struct {
	Key    string  `json:"key"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// GroupValue is a single value for one category
type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// MonthlyCategory is an amount for one category within one YYYY-MM month
type MonthlyCategory struct {
	Month    string  `json:"month"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// DailyAmount is a per-date total
type DailyAmount struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// DailyCount is a per-date row count
type DailyCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

type grouper struct {
	order []string
	sums  map[string]float64
	count map[string]int
}

func newGrouper() *grouper {
	return &grouper{sums: make(map[string]float64), count: make(map[string]int)}
}

func (g *grouper) add(key string, amount float64) {
	if _, seen := g.count[key]; !seen {
		g.order = append(g.order, key)
	}
	g.sums[key] += amount
	g.count[key]++
}

// totals returns groups sorted by key
func (g *grouper) totals() []GroupTotal {
	keys := append([]string(nil), g.order...)
	sort.Strings(keys)
	out := make([]GroupTotal, len(keys))
	for i, k := range keys {
		out[i] = GroupTotal{Key: k, Amount: g.sums[k], Count: g.count[k]}
	}
	return out
}

func sortByAmount(groups []GroupTotal, descending bool) []GroupTotal {
	sort.SliceStable(groups, func(i, j int) bool {
		if descending {
			return groups[i].Amount > groups[j].Amount
		}
		return groups[i].Amount < groups[j].Amount
	})
	return groups
}

type monthCategoryKey struct {
	month    string
	category string
}

func monthlyByCategory(add func(emit func(date time.Time, category string, amount float64))) []MonthlyCategory {
	sums := make(map[monthCategoryKey]float64)
	add(func(date time.Time, category string, amount float64) {
		sums[monthCategoryKey{ledger.MonthKey(date), category}] += amount
	})
	out := make([]MonthlyCategory, 0, len(sums))
	for k, amount := range sums {
		out = append(out, MonthlyCategory{Month: k.month, Category: k.category, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Month != out[j].Month {
			return out[i].Month < out[j].Month
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func dailyAmounts(add func(emit func(date time.Time, amount float64))) []DailyAmount {
	sums := make(map[time.Time]float64)
	add(func(date time.Time, amount float64) { sums[date] += amount })
	out := make([]DailyAmount, 0, len(sums))
	for d, amount := range sums {
		out = append(out, DailyAmount{Date: d, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
