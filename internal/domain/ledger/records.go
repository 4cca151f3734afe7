// Package ledger holds the typed tables loaded from the pharmacy workbook and
// the immutable Dataset snapshot every downstream engine reads from.
package ledger

import (
	"sort"
	"strings"
	"time"
)

// Sheet names as they appear in the workbook
const (
	SheetLists       = "lists"
	SheetDailyIncome = "Daily Income"
	SheetInventory   = "Inventory Purchases"
	SheetExpenses    = "Expenses"
)

// DailyIncome is one day's sales summary.
// NetIncome and Deficit are derived when the Dataset is assembled.
type DailyIncome struct {
	Row               int       `json:"row"`
	Date              time.Time `json:"date"`
	Total             float64   `json:"total"`
	Cash              float64   `json:"cash"`
	Visa              float64   `json:"visa"`
	DueAmount         float64   `json:"due_amount"`
	GrossIncomeSystem float64   `json:"gross_income_system"`
	NetIncome         float64   `json:"net_income"`
	Deficit           float64   `json:"deficit"`
}

// InventoryPurchase is a supplier invoice
type InventoryPurchase struct {
	Row            int       `json:"row"`
	Date           time.Time `json:"date"`
	ID             string    `json:"id,omitempty"`
	InvoiceID      string    `json:"invoice_id,omitempty"`
	InvoiceCompany string    `json:"invoice_company"`
	InventoryType  string    `json:"inventory_type"`
	InvoiceType    string    `json:"invoice_type"`
	InvoiceAmount  float64   `json:"invoice_amount"`
	CreditLimit    float64   `json:"credit_limit"`
}

// Expense is an operating expense entry
type Expense struct {
	Row           int       `json:"row"`
	Date          time.Time `json:"date"`
	ExpenseType   string    `json:"expense_type"`
	ExpenseAmount float64   `json:"expense_amount"`
}

// ReferenceLists holds the static lookup columns of the lists sheet,
// keyed by their normalized (trimmed, lowercased) header.
type ReferenceLists struct {
	Columns map[string][]string `json:"columns"`
}

// Values returns the non-empty values of a lookup column
func (l ReferenceLists) Values(name string) []string {
	if l.Columns == nil {
		return nil
	}
	return l.Columns[strings.ToLower(strings.TrimSpace(name))]
}

// Names returns the sorted column names
func (l ReferenceLists) Names() []string {
	names := make([]string, 0, len(l.Columns))
	for k := range l.Columns {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DroppedRow records a row discarded at load time
type DroppedRow struct {
	Sheet  string `json:"sheet"`
	Row    int    `json:"row"`
	Value  string `json:"value,omitempty"`
	Reason string `json:"reason"`
}

// Day truncates a timestamp to its calendar day in UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats a calendar day as YYYY-MM-DD
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// MonthKey formats a calendar day as YYYY-MM
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
