// Package workbook reads the pharmacy xlsx workbook into ledger tables.
package workbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Column names after normalization
const (
	ColDate              = "Date"
	ColTotal             = "Total"
	ColCash              = "cash"
	ColVisa              = "visa"
	ColDueAmount         = "due amount"
	ColGrossIncomeSystem = "Gross Income_sys"
	ColID                = "id"
	ColInvoiceID         = "Invoice ID"
	ColInvoiceAmount     = "Invoice Amount"
	ColInvoiceCompany    = "Invoice Company"
	ColInventoryType     = "Inventory Type"
	ColInvoiceType       = "Invoice Type"
	ColCreditLimit       = "Credit Limit"
	ColExpenseType       = "Expense Type"
	ColExpenseAmount     = "Expense Amount"
)

// sheetLayout describes how a sheet is normalized and what it must contain.
// Daily Income is deliberately left un-normalized.
type sheetLayout struct {
	name     string
	mode     HeaderMode
	required []string
}

var (
	listsLayout  = sheetLayout{name: ledger.SheetLists, mode: HeaderTrimLower}
	incomeLayout = sheetLayout{
		name:     ledger.SheetDailyIncome,
		mode:     HeaderAsIs,
		required: []string{ColDate, ColTotal, ColCash, ColVisa, ColDueAmount, ColGrossIncomeSystem},
	}
	inventoryLayout = sheetLayout{
		name:     ledger.SheetInventory,
		mode:     HeaderTrim,
		required: []string{ColDate, ColInvoiceAmount, ColInvoiceCompany, ColInventoryType, ColInvoiceType, ColCreditLimit},
	}
	expenseLayout = sheetLayout{
		name:     ledger.SheetExpenses,
		mode:     HeaderTrim,
		required: []string{ColDate, ColExpenseType, ColExpenseAmount},
	}
)

// Options configures parsing
type Options struct {
	StrictDates bool
	Source      string
	MaxErrors   int
	Now         func() time.Time
}

// Result is a parsed workbook plus the row-level problems found on the way
type Result struct {
	Dataset *ledger.Dataset
	Issues  *ErrorCollection
}

// Parse reads a workbook stream into an assembled Dataset
func Parse(r io.Reader, opts Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, ledger.ErrLoad.
			Wrapf("workbook could not be opened: %v", err).
			WithDetails(map[string]any{"source": opts.Source})
	}
	defer func() { _ = f.Close() }()

	return parseFile(f, opts)
}

func parseFile(f *excelize.File, opts Options) (*Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	issues := NewErrorCollection(opts.MaxErrors)

	sheets := make(map[string]*SheetReader, 4)
	for _, layout := range []sheetLayout{listsLayout, incomeLayout, inventoryLayout, expenseLayout} {
		s, err := openRequired(f, layout)
		if err != nil {
			return nil, err
		}
		sheets[layout.name] = s
	}

	var dropped []ledger.DroppedRow
	income := readIncome(sheets[incomeLayout.name], issues, &dropped)
	inventory := readInventory(sheets[inventoryLayout.name], issues, &dropped)
	expenses := readExpenses(sheets[expenseLayout.name], issues, &dropped)
	lists := readLists(sheets[listsLayout.name])

	ds, err := ledger.Assemble(lists, income, inventory, expenses, dropped, ledger.AssembleOptions{
		StrictDates: opts.StrictDates,
		Source:      opts.Source,
		LoadedAt:    opts.Now(),
	})
	if err != nil {
		return nil, err
	}
	return &Result{Dataset: ds, Issues: issues}, nil
}

func openRequired(f *excelize.File, layout sheetLayout) (*SheetReader, error) {
	if !slices.Contains(f.GetSheetList(), layout.name) {
		return nil, ledger.ErrLoad.
			Wrapf("required sheet %q is missing", layout.name).
			WithDetails(map[string]any{"code": ErrCodeMissingSheet, "sheet": layout.name})
	}
	s, err := OpenSheet(f, layout.name, layout.mode)
	if err != nil {
		return nil, ledger.ErrLoad.
			Wrapf("sheet %q could not be read: %v", layout.name, err).
			WithDetails(map[string]any{"sheet": layout.name})
	}
	if missing := s.ValidateHeaders(layout.required); len(missing) > 0 {
		return nil, ledger.ErrLoad.
			Wrapf("sheet %q is missing required column(s) %q", layout.name, missing).
			WithDetails(map[string]any{"code": ErrCodeMissingColumn, "sheet": layout.name, "columns": missing})
	}
	return s, nil
}

func rowDate(s *SheetReader, row *Row, issues *ErrorCollection, dropped *[]ledger.DroppedRow) (time.Time, bool) {
	raw := row.Get(ColDate)
	d, ok := ParseDate(raw)
	if !ok {
		issues.AddDateError(s.Name(), row.LineNumber, ColDate, raw)
		*dropped = append(*dropped, ledger.DroppedRow{
			Sheet:  s.Name(),
			Row:    row.LineNumber,
			Value:  raw,
			Reason: "unparseable date",
		})
	}
	return d, ok
}

func number(s *SheetReader, row *Row, column string, issues *ErrorCollection) float64 {
	if !s.HasHeader(column) {
		return 0
	}
	raw := row.Get(column)
	n, ok := ParseNumber(raw)
	if !ok {
		issues.AddNumberError(s.Name(), row.LineNumber, column, raw)
	}
	return n
}

func readIncome(s *SheetReader, issues *ErrorCollection, dropped *[]ledger.DroppedRow) []ledger.DailyIncome {
	rows := s.Rows()
	out := make([]ledger.DailyIncome, 0, len(rows))
	for _, row := range rows {
		d, ok := rowDate(s, row, issues, dropped)
		if !ok {
			continue
		}
		out = append(out, ledger.DailyIncome{
			Row:               row.LineNumber,
			Date:              d,
			Total:             number(s, row, ColTotal, issues),
			Cash:              number(s, row, ColCash, issues),
			Visa:              number(s, row, ColVisa, issues),
			DueAmount:         number(s, row, ColDueAmount, issues),
			GrossIncomeSystem: number(s, row, ColGrossIncomeSystem, issues),
		})
	}
	return out
}

func readInventory(s *SheetReader, issues *ErrorCollection, dropped *[]ledger.DroppedRow) []ledger.InventoryPurchase {
	rows := s.Rows()
	out := make([]ledger.InventoryPurchase, 0, len(rows))
	for _, row := range rows {
		d, ok := rowDate(s, row, issues, dropped)
		if !ok {
			continue
		}
		out = append(out, ledger.InventoryPurchase{
			Row:            row.LineNumber,
			Date:           d,
			ID:             FormatID(row.Get(ColID)),
			InvoiceID:      FormatID(row.Get(ColInvoiceID)),
			InvoiceCompany: row.Get(ColInvoiceCompany),
			InventoryType:  row.Get(ColInventoryType),
			InvoiceType:    row.Get(ColInvoiceType),
			InvoiceAmount:  number(s, row, ColInvoiceAmount, issues),
			CreditLimit:    number(s, row, ColCreditLimit, issues),
		})
	}
	return out
}

func readExpenses(s *SheetReader, issues *ErrorCollection, dropped *[]ledger.DroppedRow) []ledger.Expense {
	rows := s.Rows()
	out := make([]ledger.Expense, 0, len(rows))
	for _, row := range rows {
		d, ok := rowDate(s, row, issues, dropped)
		if !ok {
			continue
		}
		out = append(out, ledger.Expense{
			Row:           row.LineNumber,
			Date:          d,
			ExpenseType:   row.Get(ColExpenseType),
			ExpenseAmount: number(s, row, ColExpenseAmount, issues),
		})
	}
	return out
}

func readLists(s *SheetReader) ledger.ReferenceLists {
	lists := ledger.ReferenceLists{Columns: make(map[string][]string)}
	headers := s.Headers()
	for _, h := range headers {
		if h != "" {
			lists.Columns[h] = []string{}
		}
	}
	for _, row := range s.Rows() {
		for _, h := range headers {
			if h == "" {
				continue
			}
			if v := row.Get(h); v != "" {
				lists.Columns[h] = append(lists.Columns[h], v)
			}
		}
	}
	return lists
}

// Loader reads the workbook from a file path
type Loader struct {
	path   string
	opts   Options
	logger *zap.Logger
}

// LoaderOption is a functional option for Loader
type LoaderOption func(*Loader)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithStrictDates rejects workbooks whose sheets disagree on dates
func WithStrictDates(strict bool) LoaderOption {
	return func(l *Loader) {
		l.opts.StrictDates = strict
	}
}

// WithClock overrides the load timestamp source
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) {
		l.opts.Now = now
	}
}

// NewLoader creates a Loader for the given path
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		path:   path,
		opts:   Options{Source: path, StrictDates: true},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the workbook path
func (l *Loader) Path() string {
	return l.path
}

// Load reads and assembles the workbook
func (l *Loader) Load(ctx context.Context) (*ledger.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ledger.ErrLoad.
				Wrapf("workbook not found: %s", l.path).
				WithDetails(map[string]any{"path": l.path})
		}
		return nil, fmt.Errorf("open workbook %s: %w", l.path, err)
	}
	defer func() { _ = file.Close() }()

	result, err := Parse(file, l.opts)
	if err != nil {
		l.logger.Error("Workbook load failed", zap.String("path", l.path), zap.Error(err))
		return nil, err
	}

	ds := result.Dataset
	if result.Issues.HasErrors() {
		l.logger.Warn("Workbook rows coerced or dropped",
			zap.String("path", l.path),
			zap.Int("issues", result.Issues.TotalCount()),
			zap.Int("dropped_rows", len(ds.Dropped)),
			zap.Any("summary", result.Issues.ErrorSummary()),
		)
	}
	if !ds.DateSet.Consistent() {
		l.logger.Warn("Workbook date sets are inconsistent",
			zap.Strings("orphan_expense_dates", ds.DateSet.OrphanExpenseDates),
			zap.Strings("orphan_purchase_dates", ds.DateSet.OrphanPurchaseDates),
			zap.Strings("duplicate_income_dates", ds.DateSet.DuplicateIncomeDates),
		)
	}
	l.logger.Info("Workbook loaded",
		zap.String("path", l.path),
		zap.Int("daily_income_rows", len(ds.DailyIncome)),
		zap.Int("inventory_rows", len(ds.Inventory)),
		zap.Int("expense_rows", len(ds.Expenses)),
		zap.Int("dropped_rows", len(ds.Dropped)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ds, nil
}
