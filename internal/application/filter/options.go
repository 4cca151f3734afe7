package filter

import (
	"sort"
	"time"

	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// Choices are the values a caller can pick from
type Choices struct {
	Presets        []Preset   `json:"presets"`
	InventoryTypes []string   `json:"inventory_types"`
	Companies      []string   `json:"companies"`
	ExpenseTypes   []string   `json:"expense_types"`
	MinDate        *time.Time `json:"min_date,omitempty"`
	MaxDate        *time.Time `json:"max_date,omitempty"`
}

// Options lists the sorted distinct category values of the whole dataset
func Options(ds *ledger.Dataset) Choices {
	c := Choices{Presets: Presets}
	if ds == nil {
		return c
	}
	types := make(map[string]bool)
	companies := make(map[string]bool)
	for _, r := range ds.Inventory {
		types[r.InventoryType] = true
		companies[r.InvoiceCompany] = true
	}
	expenseTypes := make(map[string]bool)
	for _, r := range ds.Expenses {
		expenseTypes[r.ExpenseType] = true
	}
	c.InventoryTypes = sortedSet(types)
	c.Companies = sortedSet(companies)
	c.ExpenseTypes = sortedSet(expenseTypes)

	if minDate, maxDate, ok := ds.DateBounds(); ok {
		c.MinDate, c.MaxDate = &minDate, &maxDate
	}
	return c
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
