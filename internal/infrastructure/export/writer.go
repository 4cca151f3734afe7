// Package export renders report workbooks as xlsx files.
package export

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/pharmacy/analytics/internal/application/report"
)

var _ report.WorkbookWriter = (*Writer)(nil)

const (
	defaultSheet = "Sheet1"
	minColWidth  = 10
	maxColWidth  = 60
	headerFill   = "#D9E1F2"
	dateLayout   = "2006-01-02"
)

// Writer renders workbooks with bold, filled header rows and widened columns
type Writer struct {
	creator string
	stamp   time.Time
}

// Option configures a Writer
type Option func(*Writer)

// WithCreator sets the document author property
func WithCreator(name string) Option {
	return func(w *Writer) {
		w.creator = name
	}
}

// WithTimestamp sets the created and modified document properties
func WithTimestamp(t time.Time) Option {
	return func(w *Writer) {
		w.stamp = t
	}
}

// NewWriter creates a Writer. Document properties use a fixed timestamp so
// identical workbooks render to identical files.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		creator: "pharmacy-analytics",
		stamp:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders wb to xlsx bytes
func (w *Writer) Write(wb report.Workbook) ([]byte, error) {
	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#8EA9DB", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, sheet := range wb.Sheets {
		if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}
		if err := w.writeSheet(f, sheet, headerStyle); err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", sheet.Name, err)
		}
		if i == 0 {
			idx, err := f.GetSheetIndex(sheet.Name)
			if err != nil {
				return nil, fmt.Errorf("locate sheet %q: %w", sheet.Name, err)
			}
			f.SetActiveSheet(idx)
		}
	}
	if _, ok := wb.Sheet(defaultSheet); !ok {
		f.DeleteSheet(defaultSheet)
	}

	stamp := w.stamp.UTC().Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Creator:        w.creator,
		LastModifiedBy: w.creator,
		Created:        stamp,
		Modified:       stamp,
	}); err != nil {
		return nil, fmt.Errorf("set document properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeSheet writes header and data rows; dates are written as YYYY-MM-DD text
func (w *Writer) writeSheet(f *excelize.File, sheet report.Sheet, headerStyle int) error {
	var widths []int
	track := func(col int, text string) {
		for len(widths) <= col {
			widths = append(widths, 0)
		}
		if n := utf8.RuneCountInString(text); n > widths[col] {
			widths[col] = n
		}
	}

	row := 1
	for _, header := range sheet.Header {
		cells := make([]any, len(header))
		for c, h := range header {
			cells[c] = h
			track(c, h)
		}
		if err := setRow(f, sheet.Name, row, cells); err != nil {
			return err
		}
		if len(header) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(header), row)
			if err := f.SetCellStyle(sheet.Name, first, last, headerStyle); err != nil {
				return err
			}
		}
		row++
	}

	for _, values := range sheet.Rows {
		cells := make([]any, len(values))
		for c, v := range values {
			if t, ok := v.(time.Time); ok {
				cells[c] = t.Format(dateLayout)
				track(c, dateLayout)
				continue
			}
			cells[c] = v
			track(c, fmt.Sprint(v))
		}
		if err := setRow(f, sheet.Name, row, cells); err != nil {
			return err
		}
		row++
	}

	for col, n := range widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(n + 2)
		if width < minColWidth {
			width = minColWidth
		}
		if width > maxColWidth {
			width = maxColWidth
		}
		if err := f.SetColWidth(sheet.Name, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
