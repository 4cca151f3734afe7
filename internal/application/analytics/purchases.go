package analytics

import (
	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// PurchaseSummary describes a set of purchases, typically inventory search results
type PurchaseSummary struct {
	Count           int          `json:"count"`
	TotalAmount     float64      `json:"total_amount"`
	AverageAmount   float64      `json:"average_amount"`
	UniqueCompanies int          `json:"unique_companies"`
	ByCompany       []GroupTotal `json:"by_company"`
	Monthly         []GroupTotal `json:"monthly"`
}

// SummarizePurchases totals rows per company (ascending by amount) and per month
func SummarizePurchases(rows []ledger.InventoryPurchase) PurchaseSummary {
	amounts := make([]float64, len(rows))
	companies := newGrouper()
	months := newGrouper()
	for i, p := range rows {
		amounts[i] = p.InvoiceAmount
		companies.add(p.InvoiceCompany, p.InvoiceAmount)
		months.add(ledger.MonthKey(p.Date), p.InvoiceAmount)
	}
	return PurchaseSummary{
		Count:           len(rows),
		TotalAmount:     Sum(amounts),
		AverageAmount:   Mean(amounts),
		UniqueCompanies: len(companies.order),
		ByCompany:       sortByAmount(companies.totals(), false),
		Monthly:         months.totals(),
	}
}
