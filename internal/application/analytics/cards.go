package analytics

import "github.com/pharmacy/analytics/internal/domain/shared/valueobject"

// KPICard is one headline figure as the dashboard renders it
type KPICard struct {
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Delta   string  `json:"delta"`
}

func card(label string, value, pct float64, suffix string) KPICard {
	return KPICard{
		Label:   label,
		Value:   valueobject.Round2(value),
		Display: valueobject.NewMoney(value).String(),
		Delta:   valueobject.FormatPercent(pct) + suffix,
	}
}

// Cards renders the headline row followed by the payment method row
func Cards(o Overview) []KPICard {
	share := 0.0
	if o.TotalIncome > 0 {
		share = 100
	}
	return []KPICard{
		card("Total Revenue", o.TotalIncome, share, " of Total"),
		card("Total Expenses", o.TotalExpenses, o.ExpenseRatio, " of Revenue"),
		card("Total Purchases", o.TotalPurchases, o.PurchaseToIncomeRatio, " of Revenue"),
		card("Net Profit", o.NetProfit, o.ProfitMargin, " Margin"),
		card("Money Deficit", o.MoneyDeficit, o.DeficitRatio, " of Revenue"),
		card("Cash Payments", o.Payments.Cash, o.Payments.CashPct, " of Revenue"),
		card("Visa Payments", o.Payments.Visa, o.Payments.VisaPct, " of Revenue"),
		card("Due Amounts", o.Payments.Due, o.Payments.DuePct, " of Revenue"),
		card("System Income", o.Payments.SystemIncome, o.Payments.SystemIncomePct, ""),
	}
}
