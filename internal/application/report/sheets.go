package report

import (
	"github.com/pharmacy/analytics/internal/application/analytics"
	"github.com/pharmacy/analytics/internal/application/filter"
	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/domain/shared/valueobject"
)

// Sheet names
const (
	SheetFinancialOverview = "Financial Overview"
	SheetPaymentAnalysis   = "Payment Analysis"
	SheetDailyPerformance  = "Daily Performance"
	SheetExpenseAnalysis   = "Expense Analysis"
	SheetInventoryAnalysis = "Inventory Analysis"
	SheetKPIMetrics        = "KPI Metrics"

	SheetDailyRevenue    = "Daily Revenue"
	SheetMonthlyAnalysis = "Monthly Analysis"
	SheetRevenueSegments = "Revenue Segments"
	SheetRevenueKPIs     = "Revenue KPIs"
	SheetDailyPaymentMix = "Daily Payment Mix"
	SheetPaymentStats    = "Payment Statistics"
	SheetWeeklyGrowth    = "Weekly Growth"
	SheetDayOfWeek       = "Day of Week Analysis"
	SheetSearchResults   = "Search Results"
	SheetSearchSummary   = "Summary"
)

// round keeps exported amounts and ratios at currency precision
func round(v float64) float64 {
	return valueobject.Round2(v)
}

// CompleteWorkbook is the full dashboard report
func CompleteWorkbook(v filter.View) Workbook {
	o := analytics.ComputeOverview(v)

	financial := Sheet{
		Name:   SheetFinancialOverview,
		Header: [][]string{{"Metric", "Amount", "Percentage of Revenue"}},
		Rows: [][]any{
			{"Total Revenue", round(o.TotalIncome), 100.0},
			{"Total Expenses", round(o.TotalExpenses), round(o.ExpenseRatio)},
			{"Total Purchases", round(o.TotalPurchases), round(o.PurchaseToIncomeRatio)},
			{"Net Profit", round(o.NetProfit), round(o.ProfitMargin)},
			{"Money Deficit", round(o.MoneyDeficit), round(o.DeficitRatio)},
		},
	}

	payments := Sheet{
		Name:   SheetPaymentAnalysis,
		Header: [][]string{{"Payment Type", "Amount", "Percentage"}},
		Rows: [][]any{
			{analytics.MethodCash, round(o.Payments.Cash), round(o.Payments.CashPct)},
			{analytics.MethodVisa, round(o.Payments.Visa), round(o.Payments.VisaPct)},
			{analytics.MethodDue, round(o.Payments.Due), round(o.Payments.DuePct)},
		},
	}

	daily := Sheet{
		Name:   SheetDailyPerformance,
		Header: [][]string{{"date", "Total", "cash", "visa", "due amount", "Gross Income_sys", "deficit"}},
	}
	for _, d := range analytics.DailyPerformanceTable(v) {
		daily.Rows = append(daily.Rows, []any{
			d.Date, round(d.Total), round(d.Cash), round(d.Visa), round(d.Due), round(d.System), round(d.Deficit),
		})
	}

	kpis := Sheet{Name: SheetKPIMetrics, Header: [][]string{{"Metric", "Value", "Status"}}}
	for _, k := range analytics.ExportKPIStatuses(o) {
		kpis.Rows = append(kpis.Rows, []any{k.Metric, round(k.Value), k.Status})
	}

	return Workbook{Sheets: []Sheet{
		financial,
		payments,
		daily,
		expensePivotSheet(analytics.ExpensePivot(v)),
		inventoryPivotSheet(analytics.InventoryPivot(v)),
		kpis,
	}}
}

func expensePivotSheet(p analytics.Pivot) Sheet {
	header := []string{"date"}
	for _, c := range p.Columns {
		header = append(header, c.Type)
	}
	return Sheet{Name: SheetExpenseAnalysis, Header: [][]string{header}, Rows: pivotRows(p)}
}

// inventoryPivotSheet writes a two-level header: inventory type over company
func inventoryPivotSheet(p analytics.Pivot) Sheet {
	types := []string{"Inventory Type"}
	companies := []string{"Invoice Company"}
	for _, c := range p.Columns {
		types = append(types, c.Type)
		companies = append(companies, c.Company)
	}
	return Sheet{Name: SheetInventoryAnalysis, Header: [][]string{types, companies}, Rows: pivotRows(p)}
}

func pivotRows(p analytics.Pivot) [][]any {
	rows := make([][]any, len(p.Dates))
	for i, d := range p.Dates {
		row := make([]any, 0, len(p.Columns)+1)
		row = append(row, d)
		for _, v := range p.Values[i] {
			row = append(row, round(v))
		}
		rows[i] = row
	}
	return rows
}

// RevenueWorkbook is the detailed revenue report
func RevenueWorkbook(v filter.View) Workbook {
	rev := analytics.Revenue(v)

	daily := Sheet{
		Name:   SheetDailyRevenue,
		Header: [][]string{{"date", "Total", "cash", "visa", "due amount", "Gross Income_sys", "net_income", "deficit"}},
	}
	for _, d := range rev.DailyPerformance {
		daily.Rows = append(daily.Rows, []any{
			d.Date, round(d.Total), round(d.Cash), round(d.Visa), round(d.Due),
			round(d.System), round(d.NetIncome), round(d.Deficit),
		})
	}

	payments := Sheet{
		Name:   SheetPaymentAnalysis,
		Header: [][]string{{"Method", "Total Amount", "Percentage", "Daily Average"}},
	}
	for _, p := range rev.Payments {
		payments.Rows = append(payments.Rows, []any{p.Method, round(p.Total), round(p.Percentage), round(p.DailyAverage)})
	}

	segments := Sheet{
		Name:   SheetRevenueSegments,
		Header: [][]string{{"Segment", "Days", "Average Total", "Total", "cash", "visa", "due amount"}},
	}
	for _, s := range rev.Segments {
		segments.Rows = append(segments.Rows, []any{
			s.Label, s.Count, round(s.TotalMean), round(s.TotalSum), round(s.CashSum), round(s.VisaSum), round(s.DueSum),
		})
	}

	kpis := Sheet{
		Name:   SheetRevenueKPIs,
		Header: [][]string{{"Metric", "Value"}},
		Rows: [][]any{
			{"Total Revenue", round(rev.Total)},
			{"Average Daily Revenue", round(rev.DailyAverage)},
			{"Revenue Volatility", round(rev.Volatility)},
			{"Revenue Skewness", round(rev.Skewness)},
			{"Peak Revenue", round(rev.PeakRevenue)},
			{"Revenue Consistency", round(rev.AboveAverageDaysPct)},
			{"Month-over-Month Growth", round(rev.MoMGrowth)},
		},
	}

	return Workbook{Sheets: []Sheet{
		daily,
		payments,
		periodSheet(SheetMonthlyAnalysis, "Month", rev.Monthly),
		segments,
		kpis,
	}}
}

func periodSheet(name, label string, periods []analytics.PeriodBreakdown) Sheet {
	s := Sheet{
		Name: name,
		Header: [][]string{
			{label, "Total", "Total", "Total", "cash", "visa", "due amount"},
			{"", "sum", "mean", "std", "sum", "sum", "sum"},
		},
	}
	for _, p := range periods {
		s.Rows = append(s.Rows, []any{
			p.Period, round(p.TotalSum), round(p.TotalMean), round(p.TotalStd),
			round(p.CashSum), round(p.VisaSum), round(p.DueSum),
		})
	}
	return s
}

// PaymentWorkbook is the payment mix report
func PaymentWorkbook(v filter.View) Workbook {
	rev := analytics.Revenue(v)

	mix := Sheet{
		Name:   SheetDailyPaymentMix,
		Header: [][]string{{"date", "cash", "visa", "due amount", "Total", "cash_pct", "visa_pct", "due_pct"}},
	}
	for _, m := range rev.PaymentMix {
		mix.Rows = append(mix.Rows, []any{
			m.Date, round(m.Cash), round(m.Visa), round(m.Due), round(m.Total),
			round(m.CashPct), round(m.VisaPct), round(m.DuePct),
		})
	}

	header := []string{""}
	count, mean, std, lo, hi := []any{"count"}, []any{"mean"}, []any{"std"}, []any{"min"}, []any{"max"}
	for _, p := range rev.PaymentStats {
		header = append(header, p.Method)
		count = append(count, p.Count)
		mean = append(mean, round(p.Mean))
		std = append(std, round(p.Std))
		lo = append(lo, round(p.Min))
		hi = append(hi, round(p.Max))
	}
	stats := Sheet{
		Name:   SheetPaymentStats,
		Header: [][]string{header},
		Rows:   [][]any{count, mean, std, lo, hi},
	}

	return Workbook{Sheets: []Sheet{mix, stats}}
}

// GrowthWorkbook is the weekly and weekday growth report
func GrowthWorkbook(v filter.View) Workbook {
	rev := analytics.Revenue(v)

	dow := Sheet{
		Name: SheetDayOfWeek,
		Header: [][]string{
			{"Day", "Total", "Total", "Total", "Total", "cash", "cash", "visa", "visa", "due amount", "due amount"},
			{"", "count", "sum", "mean", "std", "sum", "mean", "sum", "mean", "sum", "mean"},
		},
	}
	for _, d := range rev.DayOfWeek {
		dow.Rows = append(dow.Rows, []any{
			d.Day, d.Count, round(d.TotalSum), round(d.TotalMean), round(d.TotalStd),
			round(d.CashSum), round(d.CashMean), round(d.VisaSum), round(d.VisaMean),
			round(d.DueSum), round(d.DueMean),
		})
	}

	return Workbook{Sheets: []Sheet{
		periodSheet(SheetWeeklyGrowth, "Week", rev.Weekly),
		dow,
	}}
}

// InventorySearchWorkbook exports search results and their summary
func InventorySearchWorkbook(rows []ledger.InventoryPurchase) Workbook {
	results := Sheet{
		Name: SheetSearchResults,
		Header: [][]string{{
			"date", "id", "Invoice ID", "Invoice Company", "Inventory Type", "Invoice Type", "Invoice Amount", "Credit Limit",
		}},
	}
	for _, r := range rows {
		results.Rows = append(results.Rows, []any{
			r.Date, r.ID, r.InvoiceID, r.InvoiceCompany, r.InventoryType, r.InvoiceType,
			round(r.InvoiceAmount), round(r.CreditLimit),
		})
	}

	s := analytics.SummarizePurchases(rows)
	summary := Sheet{
		Name:   SheetSearchSummary,
		Header: [][]string{{"Metric", "Value"}},
		Rows: [][]any{
			{"Total Purchases", s.Count},
			{"Total Amount", round(s.TotalAmount)},
			{"Average Purchase", round(s.AverageAmount)},
			{"Unique Companies", s.UniqueCompanies},
		},
	}
	return Workbook{Sheets: []Sheet{results, summary}}
}
