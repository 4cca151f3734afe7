package workbook

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/xuri/excelize/v2"
)

// Textual date layouts accepted in date columns, tried in order
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"1/2/06",
	"01-02-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
}

// maxExcelSerial is 9999-12-31
const maxExcelSerial = 2958465

// ParseDate coerces a cell to a calendar day. Numeric cells are Excel serials.
func ParseDate(value string) (time.Time, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial <= 0 || serial > maxExcelSerial {
			return time.Time{}, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return ledger.Day(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return ledger.Day(t), true
		}
	}
	return time.Time{}, false
}

// ParseNumber coerces a cell to a float. Blank cells are 0 and valid;
// anything else that is not a finite number is 0 and invalid.
func ParseNumber(value string) (float64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, true
	}
	v = strings.ReplaceAll(v, ",", "")
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// FormatID renders identifier cells. Whole-number floats lose their ".0".
func FormatID(value string) string {
	v := strings.TrimSpace(value)
	if n, err := strconv.ParseFloat(v, 64); err == nil && n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return v
}
