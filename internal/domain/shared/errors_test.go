package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	base := NewDomainError("LOAD_ERROR", "Failed to load data")

	detailed := base.WithDetails(map[string]any{"sheet": "income"})
	assert.True(t, errors.Is(detailed, base))

	wrapped := fmt.Errorf("refresh: %w", base.Wrapf("sheet %q missing", "income"))
	assert.True(t, errors.Is(wrapped, base))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(errors.New("LOAD_ERROR"), base))
}

func TestDomainError_WithDetails(t *testing.T) {
	base := NewDomainError("INVALID_MONTH", "Month must be between 1 and 12").
		WithDetails(map[string]any{"month": 13})

	merged := base.WithDetails(map[string]any{"field": "month"})
	assert.Equal(t, map[string]any{"month": 13, "field": "month"}, merged.Details)
	assert.Equal(t, map[string]any{"month": 13}, base.Details, "original details stay untouched")
	assert.Equal(t, base.Message, merged.Error())
}

func TestDomainError_Wrapf(t *testing.T) {
	err := ErrNotFound.Wrapf("export %s not found", "weekly")

	var de *DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "NOT_FOUND", de.Code)
	assert.Equal(t, "export weekly not found", de.Error())
	assert.Equal(t, "Resource not found", ErrNotFound.Message)
}
