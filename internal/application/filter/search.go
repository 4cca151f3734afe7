package filter

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// SearchQuery narrows inventory purchases inside an already filtered view
type SearchQuery struct {
	// Text is matched case-insensitively against every displayed column
	Text      string   `json:"text,omitempty"`
	InvoiceID string   `json:"invoice_id,omitempty"`
	Company   string   `json:"company,omitempty"`
	Type      string   `json:"type,omitempty"`
	MinAmount *float64 `json:"min_amount,omitempty"`
	MaxAmount *float64 `json:"max_amount,omitempty"`
}

// SearchInventory returns matching purchases, newest first.
// Rows sharing a date keep their source order.
func SearchInventory(rows []ledger.InventoryPurchase, q SearchQuery) []ledger.InventoryPurchase {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	invoiceID := strings.ToLower(strings.TrimSpace(q.InvoiceID))

	out := make([]ledger.InventoryPurchase, 0, len(rows))
	for _, r := range rows {
		if text != "" && !rowContains(r, text) {
			continue
		}
		if invoiceID != "" && !strings.Contains(strings.ToLower(r.InvoiceID), invoiceID) {
			continue
		}
		if !matches(q.Company, r.InvoiceCompany) || !matches(q.Type, r.InventoryType) {
			continue
		}
		if q.MinAmount != nil && r.InvoiceAmount < *q.MinAmount {
			continue
		}
		if q.MaxAmount != nil && r.InvoiceAmount > *q.MaxAmount {
			continue
		}
		out = append(out, r)
	}
	SortByDateDesc(out)
	return out
}

// SortByDateDesc orders purchases newest first, stable within a day
func SortByDateDesc(rows []ledger.InventoryPurchase) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.After(rows[j].Date)
	})
}

// DisplayFields renders a purchase the way it is shown in tables
func DisplayFields(r ledger.InventoryPurchase) []string {
	return []string{
		ledger.DateKey(r.Date),
		r.ID,
		r.InvoiceID,
		r.InvoiceCompany,
		r.InventoryType,
		r.InvoiceType,
		strconv.FormatFloat(r.InvoiceAmount, 'f', -1, 64),
		strconv.FormatFloat(r.CreditLimit, 'f', -1, 64),
	}
}

func rowContains(r ledger.InventoryPurchase, needle string) bool {
	for _, field := range DisplayFields(r) {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
