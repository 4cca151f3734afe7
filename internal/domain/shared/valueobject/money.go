package valueobject

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency represents a currency code (ISO 4217)
type Currency string

// EGP is the Egyptian Pound, the currency every ledger amount is kept in
const EGP Currency = "EGP"

// CurrencyPlaces is the number of decimal places shown and exported for amounts
const CurrencyPlaces int32 = 2

var printer = message.NewPrinter(language.English)

// Money is an immutable monetary amount in EGP
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a float64.
// NaN and infinities collapse to zero so they never reach a report.
func NewMoney(amount float64) Money {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{amount: decimal.Zero}
	}
	return Money{amount: decimal.NewFromFloat(amount)}
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return EGP
}

// Float64 returns the amount rounded half away from zero to currency places
func (m Money) Float64() float64 {
	f, _ := m.amount.Round(CurrencyPlaces).Float64()
	return f
}

// String renders the amount the way the dashboard shows it: "EGP 1,234.56"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency(), printer.Sprintf("%.2f", m.Float64()))
}

// Round2 rounds a float to currency places. Non-finite values map to zero.
func Round2(v float64) float64 {
	return NewMoney(v).Float64()
}

// FormatPercent renders a ratio already expressed in percent with one decimal, e.g. "42.5%"
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return printer.Sprintf("%.1f%%", v)
}
