// Package analytics computes KPIs and descriptive statistics over a filtered view.
// Every function is pure and never returns NaN or infinities.
package analytics

import (
	"github.com/pharmacy/analytics/internal/application/filter"
)

// PaymentTotals splits revenue by payment method
type PaymentTotals struct {
	Cash            float64 `json:"cash"`
	Visa            float64 `json:"visa"`
	Due             float64 `json:"due"`
	SystemIncome    float64 `json:"system_income"`
	CashPct         float64 `json:"cash_pct"`
	VisaPct         float64 `json:"visa_pct"`
	DuePct          float64 `json:"due_pct"`
	SystemIncomePct float64 `json:"system_income_pct"`
}

// Overview holds the headline KPIs
type Overview struct {
	TotalIncome           float64       `json:"total_income"`
	TotalExpenses         float64       `json:"total_expenses"`
	TotalPurchases        float64       `json:"total_purchases"`
	NetProfit             float64       `json:"net_profit"`
	MoneyDeficit          float64       `json:"money_deficit"`
	AvgDailyRevenue       float64       `json:"avg_daily_revenue"`
	ProfitMargin          float64       `json:"profit_margin"`
	ExpenseRatio          float64       `json:"expense_ratio"`
	PurchaseToIncomeRatio float64       `json:"purchase_to_income_ratio"`
	DeficitRatio          float64       `json:"deficit_ratio"`
	InventoryTurnover     float64       `json:"inventory_turnover"`
	Payments              PaymentTotals `json:"payments"`
	DataPoints            int           `json:"data_points"`
	Empty                 bool          `json:"empty"`
}

// ComputeOverview derives the headline KPIs.
// net_profit = income - expenses - purchases; every ratio is 0 when income is not positive.
func ComputeOverview(v filter.View) Overview {
	totals := incomeColumn(v, func(r incomeRow) float64 { return r.Total })
	income := Sum(totals)
	expenses := sumExpenses(v)
	purchases := sumPurchases(v)
	netProfit := income - expenses - purchases
	deficit := Sum(incomeColumn(v, func(r incomeRow) float64 { return r.Deficit }))

	payments := PaymentTotals{
		Cash:         Sum(incomeColumn(v, func(r incomeRow) float64 { return r.Cash })),
		Visa:         Sum(incomeColumn(v, func(r incomeRow) float64 { return r.Visa })),
		Due:          Sum(incomeColumn(v, func(r incomeRow) float64 { return r.DueAmount })),
		SystemIncome: Sum(incomeColumn(v, func(r incomeRow) float64 { return r.GrossIncomeSystem })),
	}
	payments.CashPct = Percent(payments.Cash, income)
	payments.VisaPct = Percent(payments.Visa, income)
	payments.DuePct = Percent(payments.Due, income)
	payments.SystemIncomePct = Percent(payments.SystemIncome, income)

	return Overview{
		TotalIncome:           income,
		TotalExpenses:         expenses,
		TotalPurchases:        purchases,
		NetProfit:             netProfit,
		MoneyDeficit:          deficit,
		AvgDailyRevenue:       Mean(totals),
		ProfitMargin:          Percent(netProfit, income),
		ExpenseRatio:          Percent(expenses, income),
		PurchaseToIncomeRatio: Percent(purchases, income),
		DeficitRatio:          Percent(deficit, income),
		InventoryTurnover:     Ratio(income, purchases),
		Payments:              payments,
		DataPoints:            v.DataPoints(),
		Empty:                 v.Empty(),
	}
}

func sumExpenses(v filter.View) float64 {
	var total float64
	for _, e := range v.Expenses {
		total += e.ExpenseAmount
	}
	return total
}

func sumPurchases(v filter.View) float64 {
	var total float64
	for _, p := range v.Inventory {
		total += p.InvoiceAmount
	}
	return total
}
