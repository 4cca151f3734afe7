package analytics

import (
	"sort"
	"time"

	"github.com/pharmacy/analytics/internal/application/filter"
)

// InventoryAnalysis backs the inventory tab
type InventoryAnalysis struct {
	TotalPurchases float64 `json:"total_purchases"`
	TotalCredit    float64 `json:"total_credit"`
	AverageInvoice float64 `json:"average_invoice"`
	Suppliers      int     `json:"suppliers"`
	Types          int     `json:"types"`

	CreditUtilization float64 `json:"credit_utilization"`
	AvgCreditLimit    float64 `json:"avg_credit_limit"`
	MaxCreditLimit    float64 `json:"max_credit_limit"`
	CreditToPurchase  float64 `json:"credit_to_purchase"`

	SupplierVolume     []GroupTotal      `json:"supplier_volume"`
	CreditByCompany    []GroupValue      `json:"credit_by_company"`
	TypeDistribution   []GroupTotal      `json:"type_distribution"`
	MonthlyTypeTrends  []MonthlyCategory `json:"monthly_type_trends"`
	DailyInvoiceCounts []DailyCount      `json:"daily_invoice_counts"`
	InvoiceTypes       []GroupTotal      `json:"invoice_types"`

	AvgDailyPurchase  float64 `json:"avg_daily_purchase"`
	PurchaseStd       float64 `json:"purchase_std"`
	LargestInvoice    float64 `json:"largest_invoice"`
	InvoiceCount      int     `json:"invoice_count"`
	InventoryTurnover float64 `json:"inventory_turnover"`
}

// Inventory analyzes the purchases table of the view
func Inventory(v filter.View) InventoryAnalysis {
	amounts := make([]float64, len(v.Inventory))
	credits := make([]float64, len(v.Inventory))
	suppliers := newGrouper()
	types := newGrouper()
	invoiceTypes := newGrouper()
	creditSums := newGrouper()
	counts := make(map[time.Time]int)

	for i, p := range v.Inventory {
		amounts[i] = p.InvoiceAmount
		credits[i] = p.CreditLimit
		suppliers.add(p.InvoiceCompany, p.InvoiceAmount)
		types.add(p.InventoryType, p.InvoiceAmount)
		invoiceTypes.add(p.InvoiceType, p.InvoiceAmount)
		creditSums.add(p.InvoiceCompany, p.CreditLimit)
		counts[p.Date]++
	}

	total := Sum(amounts)
	credit := Sum(credits)
	daily := dailyAmounts(func(emit func(time.Time, float64)) {
		for _, p := range v.Inventory {
			emit(p.Date, p.InvoiceAmount)
		}
	})
	perDay := make([]float64, len(daily))
	for i, d := range daily {
		perDay[i] = d.Amount
	}

	a := InventoryAnalysis{
		TotalPurchases:    total,
		TotalCredit:       credit,
		AverageInvoice:    Mean(amounts),
		Suppliers:         len(suppliers.order),
		Types:             len(types.order),
		CreditUtilization: Percent(total, credit),
		AvgCreditLimit:    Mean(credits),
		MaxCreditLimit:    Max(credits),
		CreditToPurchase:  Ratio(credit, total),
		SupplierVolume:    sortByAmount(suppliers.totals(), true),
		TypeDistribution:  types.totals(),
		InvoiceTypes:      invoiceTypes.totals(),
		AvgDailyPurchase:  Mean(perDay),
		PurchaseStd:       StdDev(amounts),
		LargestInvoice:    Max(amounts),
		InvoiceCount:      len(v.Inventory),
		InventoryTurnover: Ratio(Sum(incomeColumn(v, func(r incomeRow) float64 { return r.Total })), total),
	}

	for _, g := range creditSums.totals() {
		a.CreditByCompany = append(a.CreditByCompany, GroupValue{Key: g.Key, Value: Ratio(g.Amount, float64(g.Count))})
	}
	sort.SliceStable(a.CreditByCompany, func(i, j int) bool {
		return a.CreditByCompany[i].Value > a.CreditByCompany[j].Value
	})

	a.MonthlyTypeTrends = monthlyByCategory(func(emit func(time.Time, string, float64)) {
		for _, p := range v.Inventory {
			emit(p.Date, p.InventoryType, p.InvoiceAmount)
		}
	})

	for d, c := range counts {
		a.DailyInvoiceCounts = append(a.DailyInvoiceCounts, DailyCount{Date: d, Count: c})
	}
	sort.Slice(a.DailyInvoiceCounts, func(i, j int) bool {
		return a.DailyInvoiceCounts[i].Date.Before(a.DailyInvoiceCounts[j].Date)
	})
	return a
}
