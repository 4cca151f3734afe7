package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizePurchases(t *testing.T) {
	s := SummarizePurchases(sampleView().Inventory)

	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1000.0, s.TotalAmount)
	assert.InDelta(t, 333.333, s.AverageAmount, 1e-3)
	assert.Equal(t, 2, s.UniqueCompanies)

	require.Len(t, s.ByCompany, 2)
	assert.Equal(t, GroupTotal{Key: "Beta", Amount: 100, Count: 1}, s.ByCompany[0])
	assert.Equal(t, GroupTotal{Key: "Alpha", Amount: 900, Count: 2}, s.ByCompany[1])

	assert.Equal(t, []GroupTotal{
		{Key: "2024-01", Amount: 500, Count: 2},
		{Key: "2024-02", Amount: 500, Count: 1},
	}, s.Monthly)
}

func TestSummarizePurchases_Empty(t *testing.T) {
	s := SummarizePurchases(nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.AverageAmount)
	assert.Empty(t, s.ByCompany)
}
