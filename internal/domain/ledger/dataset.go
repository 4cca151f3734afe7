package ledger

import (
	"sort"
	"time"
)

// Dataset is an immutable snapshot of the workbook.
// Nothing mutates a Dataset after Assemble returns it; filters build new slices.
type Dataset struct {
	Source      string              `json:"source"`
	LoadedAt    time.Time           `json:"loaded_at"`
	Lists       ReferenceLists      `json:"lists"`
	DailyIncome []DailyIncome       `json:"daily_income"`
	Inventory   []InventoryPurchase `json:"inventory"`
	Expenses    []Expense           `json:"expenses"`
	Dropped     []DroppedRow        `json:"dropped"`
	DateSet     DateSetReport       `json:"date_set"`
}

// DateSetReport describes how the transactional sheets' dates line up
type DateSetReport struct {
	OrphanExpenseDates   []string `json:"orphan_expense_dates,omitempty"`
	OrphanPurchaseDates  []string `json:"orphan_purchase_dates,omitempty"`
	DuplicateIncomeDates []string `json:"duplicate_income_dates,omitempty"`
}

// Consistent reports whether every cost date has exactly one income row
func (r DateSetReport) Consistent() bool {
	return len(r.OrphanExpenseDates) == 0 && len(r.OrphanPurchaseDates) == 0 && len(r.DuplicateIncomeDates) == 0
}

// Details renders the report for error payloads
func (r DateSetReport) Details() map[string]any {
	return map[string]any{
		"orphan_expense_dates":   r.OrphanExpenseDates,
		"orphan_purchase_dates":  r.OrphanPurchaseDates,
		"duplicate_income_dates": r.DuplicateIncomeDates,
	}
}

// AssembleOptions controls date-set validation
type AssembleOptions struct {
	// StrictDates rejects datasets whose date sets are inconsistent
	StrictDates bool
	Source      string
	LoadedAt    time.Time
}

// Assemble joins the typed tables by date, derives NetIncome and Deficit and
// validates the date sets. The input slices are copied, never modified.
//
// NetIncome for a day is Total minus that day's expenses and purchases. When
// several income rows share a date, the day's costs are charged to the first.
func Assemble(
	lists ReferenceLists,
	income []DailyIncome,
	inventory []InventoryPurchase,
	expenses []Expense,
	dropped []DroppedRow,
	opts AssembleOptions,
) (*Dataset, error) {
	expenseByDay := make(map[time.Time]float64)
	for _, e := range expenses {
		expenseByDay[e.Date] += e.ExpenseAmount
	}
	purchaseByDay := make(map[time.Time]float64)
	for _, p := range inventory {
		purchaseByDay[p.Date] += p.InvoiceAmount
	}

	derived := make([]DailyIncome, len(income))
	charged := make(map[time.Time]bool, len(income))
	duplicates := make(map[time.Time]bool)
	for i, r := range income {
		r.Deficit = r.Total - r.GrossIncomeSystem
		if charged[r.Date] {
			duplicates[r.Date] = true
			r.NetIncome = r.Total
		} else {
			charged[r.Date] = true
			r.NetIncome = r.Total - expenseByDay[r.Date] - purchaseByDay[r.Date]
		}
		derived[i] = r
	}

	report := DateSetReport{
		OrphanExpenseDates:   orphanDates(expenseByDay, charged),
		OrphanPurchaseDates:  orphanDates(purchaseByDay, charged),
		DuplicateIncomeDates: sortedKeys(duplicates),
	}

	if opts.StrictDates && !report.Consistent() {
		return nil, ErrDateSetMismatch.WithDetails(report.Details())
	}

	ds := &Dataset{
		Source:      opts.Source,
		LoadedAt:    opts.LoadedAt,
		Lists:       lists,
		DailyIncome: derived,
		Inventory:   append([]InventoryPurchase(nil), inventory...),
		Expenses:    append([]Expense(nil), expenses...),
		Dropped:     append([]DroppedRow(nil), dropped...),
		DateSet:     report,
	}
	return ds, nil
}

// DateBounds returns the earliest and latest daily-income dates
func (d *Dataset) DateBounds() (minDate, maxDate time.Time, ok bool) {
	if d == nil || len(d.DailyIncome) == 0 {
		return time.Time{}, time.Time{}, false
	}
	minDate, maxDate = d.DailyIncome[0].Date, d.DailyIncome[0].Date
	for _, r := range d.DailyIncome[1:] {
		if r.Date.Before(minDate) {
			minDate = r.Date
		}
		if r.Date.After(maxDate) {
			maxDate = r.Date
		}
	}
	return minDate, maxDate, true
}

// RowCounts returns the number of rows per sheet
func (d *Dataset) RowCounts() map[string]int {
	return map[string]int{
		SheetDailyIncome: len(d.DailyIncome),
		SheetInventory:   len(d.Inventory),
		SheetExpenses:    len(d.Expenses),
	}
}

func orphanDates(costs map[time.Time]float64, income map[time.Time]bool) []string {
	orphans := make(map[time.Time]bool)
	for day := range costs {
		if !income[day] {
			orphans[day] = true
		}
	}
	return sortedKeys(orphans)
}

func sortedKeys(set map[time.Time]bool) []string {
	if len(set) == 0 {
		return nil
	}
	days := make([]time.Time, 0, len(set))
	for d := range set {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	keys := make([]string, len(days))
	for i, d := range days {
		keys[i] = DateKey(d)
	}
	return keys
}
