package analytics

import (
	"sort"
	"time"

	"github.com/pharmacy/analytics/internal/application/filter"
)

// PivotColumn identifies one column of a pivot; Company is empty for
// single-level pivots.
type PivotColumn struct {
	Type    string `json:"type"`
	Company string `json:"company,omitempty"`
}

// Pivot is a date by category table of summed amounts, zero where a
// combination has no rows.
type Pivot struct {
	Dates   []time.Time   `json:"dates"`
	Columns []PivotColumn `json:"columns"`
	Values  [][]float64   `json:"values"`
}

// ExpensePivot sums expenses by date and expense type
func ExpensePivot(v filter.View) Pivot {
	b := newPivotBuilder()
	for _, e := range v.Expenses {
		b.add(e.Date, PivotColumn{Type: e.ExpenseType}, e.ExpenseAmount)
	}
	return b.build()
}

// InventoryPivot sums purchases by date and (inventory type, company)
func InventoryPivot(v filter.View) Pivot {
	b := newPivotBuilder()
	for _, p := range v.Inventory {
		b.add(p.Date, PivotColumn{Type: p.InventoryType, Company: p.InvoiceCompany}, p.InvoiceAmount)
	}
	return b.build()
}

type pivotCell struct {
	date time.Time
	col  PivotColumn
}

type pivotBuilder struct {
	dates map[time.Time]bool
	cols  map[PivotColumn]bool
	sums  map[pivotCell]float64
}

func newPivotBuilder() *pivotBuilder {
	return &pivotBuilder{
		dates: make(map[time.Time]bool),
		cols:  make(map[PivotColumn]bool),
		sums:  make(map[pivotCell]float64),
	}
}

func (b *pivotBuilder) add(date time.Time, col PivotColumn, amount float64) {
	b.dates[date] = true
	b.cols[col] = true
	b.sums[pivotCell{date, col}] += amount
}

func (b *pivotBuilder) build() Pivot {
	p := Pivot{}
	for d := range b.dates {
		p.Dates = append(p.Dates, d)
	}
	sort.Slice(p.Dates, func(i, j int) bool { return p.Dates[i].Before(p.Dates[j]) })
	for c := range b.cols {
		p.Columns = append(p.Columns, c)
	}
	sort.Slice(p.Columns, func(i, j int) bool {
		if p.Columns[i].Type != p.Columns[j].Type {
			return p.Columns[i].Type < p.Columns[j].Type
		}
		return p.Columns[i].Company < p.Columns[j].Company
	})

	p.Values = make([][]float64, len(p.Dates))
	for i, d := range p.Dates {
		p.Values[i] = make([]float64, len(p.Columns))
		for j, c := range p.Columns {
			p.Values[i][j] = b.sums[pivotCell{d, c}]
		}
	}
	return p
}
