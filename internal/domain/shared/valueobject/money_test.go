package valueobject

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMoney(t *testing.T) {
	t.Run("is kept in EGP", func(t *testing.T) {
		m := NewMoney(100.5)
		assert.Equal(t, EGP, m.Currency())
		assert.Equal(t, 100.5, m.Float64())
	})

	t.Run("non finite values collapse to zero", func(t *testing.T) {
		assert.Zero(t, NewMoney(math.NaN()).Float64())
		assert.Zero(t, NewMoney(math.Inf(1)).Float64())
		assert.Zero(t, NewMoney(math.Inf(-1)).Float64())
	})
}

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"half rounds away from zero", 2.675, 2.68},
		{"negative half", -1.005, -1.01},
		{"already rounded", 10.5, 10.5},
		{"many places", 1234.56789, 1234.57},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round2(tt.in))
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "EGP 1,234.57", NewMoney(1234.567).String())
	assert.Equal(t, "EGP 0.00", NewMoney(0).String())
	assert.Equal(t, "EGP -1,000,000.00", NewMoney(-1e6).String())
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "42.5%", FormatPercent(42.46))
	assert.Equal(t, "0.0%", FormatPercent(math.Inf(1)))
}
