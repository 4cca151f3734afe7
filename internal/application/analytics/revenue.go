package analytics

import (
	"sort"
	"time"

	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// Moving average windows shown on the revenue tab
var MovingAverageWindows = []int{7, 14, 30}

// Payment method labels
const (
	MethodCash = "Cash"
	MethodVisa = "Visa"
	MethodDue  = "Due Amount"
)

// PaymentMethod summarizes one payment channel
type PaymentMethod struct {
	Method       string  `json:"method"`
	Total        float64 `json:"total"`
	Percentage   float64 `json:"percentage"`
	DailyAverage float64 `json:"daily_average"`
}

// PeriodBreakdown aggregates daily-income rows over a month or a week
type PeriodBreakdown struct {
	Period    string  `json:"period"`
	Count     int     `json:"count"`
	TotalSum  float64 `json:"total_sum"`
	TotalMean float64 `json:"total_mean"`
	TotalStd  float64 `json:"total_std"`
	CashSum   float64 `json:"cash_sum"`
	VisaSum   float64 `json:"visa_sum"`
	DueSum    float64 `json:"due_sum"`
}

// DayOfWeekBreakdown aggregates daily-income rows sharing a weekday
type DayOfWeekBreakdown struct {
	Day       string  `json:"day"`
	Count     int     `json:"count"`
	TotalSum  float64 `json:"total_sum"`
	TotalMean float64 `json:"total_mean"`
	TotalStd  float64 `json:"total_std"`
	CashSum   float64 `json:"cash_sum"`
	CashMean  float64 `json:"cash_mean"`
	VisaSum   float64 `json:"visa_sum"`
	VisaMean  float64 `json:"visa_mean"`
	DueSum    float64 `json:"due_sum"`
	DueMean   float64 `json:"due_mean"`
}

// SeriesPoint is one dated value; Value is nil where undefined
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

// MovingAverage is a trailing mean over Window rows
type MovingAverage struct {
	Window int           `json:"window"`
	Points []SeriesPoint `json:"points"`
}

// PaymentMix is one row's payment split as a share of its total
type PaymentMix struct {
	Date    time.Time `json:"date"`
	Total   float64   `json:"total"`
	Cash    float64   `json:"cash"`
	Visa    float64   `json:"visa"`
	Due     float64   `json:"due"`
	CashPct float64   `json:"cash_pct"`
	VisaPct float64   `json:"visa_pct"`
	DuePct  float64   `json:"due_pct"`
}

// PaymentStat describes the distribution of one payment column
type PaymentStat struct {
	Method string  `json:"method"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// DailyPerformance sums daily-income columns per date
type DailyPerformance struct {
	Date      time.Time `json:"date"`
	Total     float64   `json:"total"`
	Cash      float64   `json:"cash"`
	Visa      float64   `json:"visa"`
	Due       float64   `json:"due"`
	System    float64   `json:"system"`
	NetIncome float64   `json:"net_income"`
	Deficit   float64   `json:"deficit"`
}

// RevenueAnalysis backs the revenue tab and the revenue, payment and growth reports
type RevenueAnalysis struct {
	Total               float64 `json:"total"`
	DailyAverage        float64 `json:"daily_average"`
	MonthlyAverage      float64 `json:"monthly_average"`
	Volatility          float64 `json:"volatility"`
	Skewness            float64 `json:"skewness"`
	PeakRevenue         float64 `json:"peak_revenue"`
	AboveAverageDaysPct float64 `json:"above_average_days_pct"`
	MoMGrowth           float64 `json:"mom_growth"`

	Payments           []PaymentMethod      `json:"payments"`
	Monthly            []PeriodBreakdown    `json:"monthly"`
	Weekly             []PeriodBreakdown    `json:"weekly"`
	DayOfWeek          []DayOfWeekBreakdown `json:"day_of_week"`
	Daily              []SeriesPoint        `json:"daily"`
	MovingAverages     []MovingAverage      `json:"moving_averages"`
	Segments           []SegmentStats       `json:"segments"`
	PaymentStats       []PaymentStat        `json:"payment_stats"`
	PaymentCorrelation CorrelationMatrix    `json:"payment_correlation"`
	PaymentMix         []PaymentMix         `json:"payment_mix"`
	DailyPerformance   []DailyPerformance   `json:"daily_performance"`
}

// Revenue analyzes the daily-income table of the view
func Revenue(v filter.View) RevenueAnalysis {
	totals := incomeColumn(v, func(r incomeRow) float64 { return r.Total })
	cash := incomeColumn(v, func(r incomeRow) float64 { return r.Cash })
	visa := incomeColumn(v, func(r incomeRow) float64 { return r.Visa })
	due := incomeColumn(v, func(r incomeRow) float64 { return r.DueAmount })

	total := Sum(totals)
	mean := Mean(totals)

	a := RevenueAnalysis{
		Total:          total,
		DailyAverage:   mean,
		MonthlyAverage: monthlyAverage(v, total),
		Volatility:     Volatility(totals),
		Skewness:       Skewness(totals),
		PeakRevenue:    Max(totals),
		Payments: []PaymentMethod{
			{Method: MethodCash, Total: Sum(cash), Percentage: Percent(Sum(cash), total), DailyAverage: Mean(cash)},
			{Method: MethodVisa, Total: Sum(visa), Percentage: Percent(Sum(visa), total), DailyAverage: Mean(visa)},
			{Method: MethodDue, Total: Sum(due), Percentage: Percent(Sum(due), total), DailyAverage: Mean(due)},
		},
		PaymentStats: []PaymentStat{
			paymentStat(MethodCash, cash),
			paymentStat(MethodVisa, visa),
			paymentStat(MethodDue, due),
		},
		PaymentCorrelation: Correlate([]string{MethodCash, MethodVisa, MethodDue}, [][]float64{cash, visa, due}),
	}

	if len(totals) > 0 {
		above := 0
		for _, t := range totals {
			if t > mean {
				above++
			}
		}
		a.AboveAverageDaysPct = float64(above) / float64(len(totals)) * 100
	}

	a.Monthly = periodBreakdown(v, ledger.MonthKey)
	a.Weekly = periodBreakdown(v, WeekKey)
	a.MoMGrowth = monthOverMonth(a.Monthly)
	a.DayOfWeek = dayOfWeekBreakdown(v)

	sorted := incomeByDate(v)
	a.Daily = make([]SeriesPoint, len(sorted))
	for i, r := range sorted {
		value := r.Total
		a.Daily[i] = SeriesPoint{Date: r.Date, Value: &value}
	}
	for _, w := range MovingAverageWindows {
		a.MovingAverages = append(a.MovingAverages, movingAverage(sorted, w))
	}

	if segs, err := SegmentRevenue(v.DailyIncome); err == nil {
		a.Segments = segs
	}

	a.PaymentMix = make([]PaymentMix, len(v.DailyIncome))
	for i, r := range v.DailyIncome {
		a.PaymentMix[i] = PaymentMix{
			Date:    r.Date,
			Total:   r.Total,
			Cash:    r.Cash,
			Visa:    r.Visa,
			Due:     r.DueAmount,
			CashPct: Percent(r.Cash, r.Total),
			VisaPct: Percent(r.Visa, r.Total),
			DuePct:  Percent(r.DueAmount, r.Total),
		}
	}
	a.DailyPerformance = DailyPerformanceTable(v)
	return a
}

// monthlyAverage spreads the total over the covered span in 30-day months
func monthlyAverage(v filter.View, total float64) float64 {
	if len(v.DailyIncome) == 0 {
		return 0
	}
	first, last := v.DailyIncome[0].Date, v.DailyIncome[0].Date
	for _, r := range v.DailyIncome[1:] {
		if r.Date.Before(first) {
			first = r.Date
		}
		if r.Date.After(last) {
			last = r.Date
		}
	}
	spanDays := int(last.Sub(first).Hours() / 24)
	if spanDays == 0 {
		return 0
	}
	return Finite(total / (float64(spanDays) / 30))
}

func monthOverMonth(monthly []PeriodBreakdown) float64 {
	if len(monthly) < 2 {
		return 0
	}
	last := monthly[len(monthly)-1].TotalSum
	prev := monthly[len(monthly)-2].TotalSum
	return Percent(last-prev, prev)
}

func periodBreakdown(v filter.View, key func(time.Time) string) []PeriodBreakdown {
	groups := make(map[string][]incomeRow)
	for _, r := range v.DailyIncome {
		k := key(r.Date)
		groups[k] = append(groups[k], r)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]PeriodBreakdown, len(keys))
	for i, k := range keys {
		rows := groups[k]
		totals := columnOf(rows, func(r incomeRow) float64 { return r.Total })
		out[i] = PeriodBreakdown{
			Period:    k,
			Count:     len(rows),
			TotalSum:  Sum(totals),
			TotalMean: Mean(totals),
			TotalStd:  StdDev(totals),
			CashSum:   Sum(columnOf(rows, func(r incomeRow) float64 { return r.Cash })),
			VisaSum:   Sum(columnOf(rows, func(r incomeRow) float64 { return r.Visa })),
			DueSum:    Sum(columnOf(rows, func(r incomeRow) float64 { return r.DueAmount })),
		}
	}
	return out
}

// dayOfWeekBreakdown lists the weekdays present in the view, Monday first
func dayOfWeekBreakdown(v filter.View) []DayOfWeekBreakdown {
	groups := make(map[time.Weekday][]incomeRow)
	for _, r := range v.DailyIncome {
		groups[r.Date.Weekday()] = append(groups[r.Date.Weekday()], r)
	}
	var out []DayOfWeekBreakdown
	for _, wd := range WeekdayOrder {
		rows, ok := groups[wd]
		if !ok {
			continue
		}
		totals := columnOf(rows, func(r incomeRow) float64 { return r.Total })
		cash := columnOf(rows, func(r incomeRow) float64 { return r.Cash })
		visa := columnOf(rows, func(r incomeRow) float64 { return r.Visa })
		due := columnOf(rows, func(r incomeRow) float64 { return r.DueAmount })
		out = append(out, DayOfWeekBreakdown{
			Day:       wd.String(),
			Count:     len(rows),
			TotalSum:  Sum(totals),
			TotalMean: Mean(totals),
			TotalStd:  StdDev(totals),
			CashSum:   Sum(cash),
			CashMean:  Mean(cash),
			VisaSum:   Sum(visa),
			VisaMean:  Mean(visa),
			DueSum:    Sum(due),
			DueMean:   Mean(due),
		})
	}
	return out
}

// movingAverage is null until the window is full
func movingAverage(sorted []incomeRow, window int) MovingAverage {
	ma := MovingAverage{Window: window, Points: make([]SeriesPoint, len(sorted))}
	var running float64
	for i, r := range sorted {
		running += r.Total
		if i >= window {
			running -= sorted[i-window].Total
		}
		ma.Points[i].Date = r.Date
		if i+1 >= window {
			avg := running / float64(window)
			ma.Points[i].Value = &avg
		}
	}
	return ma
}

func paymentStat(method string, x []float64) PaymentStat {
	return PaymentStat{Method: method, Count: len(x), Mean: Mean(x), Std: StdDev(x), Min: Min(x), Max: Max(x)}
}

// DailyPerformanceTable sums daily-income columns by date, ascending
func DailyPerformanceTable(v filter.View) []DailyPerformance {
	byDay := make(map[time.Time]*DailyPerformance)
	var days []time.Time
	for _, r := range v.DailyIncome {
		p, ok := byDay[r.Date]
		if !ok {
			p = &DailyPerformance{Date: r.Date}
			byDay[r.Date] = p
			days = append(days, r.Date)
		}
		p.Total += r.Total
		p.Cash += r.Cash
		p.Visa += r.Visa
		p.Due += r.DueAmount
		p.System += r.GrossIncomeSystem
		p.NetIncome += r.NetIncome
		p.Deficit += r.Deficit
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	out := make([]DailyPerformance, len(days))
	for i, d := range days {
		out[i] = *byDay[d]
	}
	return out
}

func columnOf(rows []incomeRow, f func(incomeRow) float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f(r)
	}
	return out
}
