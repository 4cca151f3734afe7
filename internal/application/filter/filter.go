// Package filter narrows a ledger Dataset to the date window, month and
// categories a caller asked for.
package filter

import (
	"strings"
	"time"

	"github.com/pharmacy/analytics/internal/domain/ledger"
)

// Preset names a date window anchored to the latest daily-income date
type Preset string

// Date window presets
const (
	PresetCustom      Preset = "custom"
	PresetLast7Days   Preset = "last_7_days"
	PresetLast30Days  Preset = "last_30_days"
	PresetLast90Days  Preset = "last_90_days"
	PresetYearToDate  Preset = "year_to_date"
	PresetAllTime     Preset = "all_time"
	categoryUnlimited        = "All"
)

// Presets lists the supported presets in display order
var Presets = []Preset{PresetCustom, PresetLast7Days, PresetLast30Days, PresetLast90Days, PresetYearToDate, PresetAllTime}

// Valid reports whether p is a known preset
func (p Preset) Valid() bool {
	for _, known := range Presets {
		if p == known {
			return true
		}
	}
	return false
}

// Request is the full selection a caller can make
type Request struct {
	Preset        Preset     `json:"preset"`
	Start         *time.Time `json:"start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	Month         int        `json:"month,omitempty"`
	InventoryType string     `json:"inventory_type,omitempty"`
	Company       string     `json:"company,omitempty"`
	ExpenseType   string     `json:"expense_type,omitempty"`
}

// Window is an inclusive calendar-day range
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether d falls inside the window
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns the number of calendar days between Start and End
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// View is the filtered, read-only slice of a Dataset.
// Tables keep their source order.
type View struct {
	DailyIncome []ledger.DailyIncome       `json:"daily_income"`
	Inventory   []ledger.InventoryPurchase `json:"inventory"`
	Expenses    []ledger.Expense           `json:"expenses"`
	Window      Window                     `json:"window"`
	Request     Request                    `json:"request"`
}

// Empty reports whether no daily-income rows survived the filter
func (v View) Empty() bool {
	return len(v.DailyIncome) == 0
}

// DataPoints counts rows across all three tables
func (v View) DataPoints() int {
	return len(v.DailyIncome) + len(v.Inventory) + len(v.Expenses)
}

// ResolveWindow turns a request's preset or explicit dates into a Window.
// Presets are anchored to the dataset's latest daily-income date, never to the wall clock.
func ResolveWindow(ds *ledger.Dataset, req Request) (Window, error) {
	preset := req.Preset
	if preset == "" {
		preset = PresetAllTime
	}
	switch preset {
	case PresetCustom, PresetLast7Days, PresetLast30Days, PresetLast90Days, PresetYearToDate, PresetAllTime:
	default:
		return Window{}, ledger.ErrInvalidDateRange.Wrapf("unknown date preset %q", preset)
	}
	if preset == PresetCustom && req.Start != nil && req.End != nil {
		if err := checkOrder(ledger.Day(*req.Start), ledger.Day(*req.End)); err != nil {
			return Window{}, err
		}
	}

	minDate, maxDate, ok := ds.DateBounds()
	if !ok {
		return Window{}, nil
	}

	switch preset {
	case PresetCustom:
		w := Window{Start: minDate, End: maxDate}
		if req.Start != nil {
			w.Start = ledger.Day(*req.Start)
		}
		if req.End != nil {
			w.End = ledger.Day(*req.End)
		}
		if err := checkOrder(w.Start, w.End); err != nil {
			return Window{}, err
		}
		return w, nil
	case PresetLast7Days:
		return Window{Start: maxDate.AddDate(0, 0, -7), End: maxDate}, nil
	case PresetLast30Days:
		return Window{Start: maxDate.AddDate(0, 0, -30), End: maxDate}, nil
	case PresetLast90Days:
		return Window{Start: maxDate.AddDate(0, 0, -90), End: maxDate}, nil
	case PresetYearToDate:
		return Window{Start: time.Date(maxDate.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), End: maxDate}, nil
	default:
		return Window{Start: minDate, End: maxDate}, nil
	}
}

func checkOrder(start, end time.Time) error {
	if start.After(end) {
		return ledger.ErrInvalidDateRange.WithDetails(map[string]any{
			"start": ledger.DateKey(start),
			"end":   ledger.DateKey(end),
		})
	}
	return nil
}

// Apply filters the dataset. Category filters touch only inventory and expenses.
func Apply(ds *ledger.Dataset, req Request) (View, error) {
	if req.Month < 0 || req.Month > 12 {
		return View{}, ledger.ErrInvalidMonth.WithDetails(map[string]any{"month": req.Month})
	}
	window, err := ResolveWindow(ds, req)
	if err != nil {
		return View{}, err
	}

	if ds == nil || window.Start.IsZero() {
		return View{Window: window, Request: req}, nil
	}
	src := View{DailyIncome: ds.DailyIncome, Inventory: ds.Inventory, Expenses: ds.Expenses}
	return narrow(src, window, req), nil
}

// Refine applies the same predicates to an existing view, keeping the date
// window the view already carries. Refine(Apply(ds, r), r) equals Apply(ds, r).
func Refine(v View, req Request) View {
	return narrow(v, v.Window, req)
}

func narrow(src View, window Window, req Request) View {
	out := View{Window: window, Request: req}
	inDates := func(d time.Time) bool {
		if !window.Contains(d) {
			return false
		}
		return req.Month == 0 || int(d.Month()) == req.Month
	}
	for _, r := range src.DailyIncome {
		if inDates(r.Date) {
			out.DailyIncome = append(out.DailyIncome, r)
		}
	}
	for _, r := range src.Inventory {
		if inDates(r.Date) && matches(req.InventoryType, r.InventoryType) && matches(req.Company, r.InvoiceCompany) {
			out.Inventory = append(out.Inventory, r)
		}
	}
	for _, r := range src.Expenses {
		if inDates(r.Date) && matches(req.ExpenseType, r.ExpenseType) {
			out.Expenses = append(out.Expenses, r)
		}
	}
	return out
}

func matches(selected, value string) bool {
	s := strings.TrimSpace(selected)
	return s == "" || s == categoryUnlimited || s == value
}
