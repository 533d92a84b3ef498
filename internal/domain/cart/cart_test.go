package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLine_RejectsNonPositiveQuantity(t *testing.T) {
	_, err := NewLine("l1", "u1", "p1", 0, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewLine("l1", "u1", "p1", -3, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestMerge_KeepsLockedPrice(t *testing.T) {
	line, err := NewLine("l1", "u1", "p1", 2, decimal.RequireFromString("49.90"))
	require.NoError(t, err)

	require.NoError(t, line.Merge(3))
	assert.Equal(t, 5, line.Quantity)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("49.90")))

	assert.ErrorIs(t, line.Merge(0), ErrInvalidQuantity)
	assert.Equal(t, 5, line.Quantity)
}

func TestSubtotal(t *testing.T) {
	line, err := NewLine("l1", "u1", "p1", 3, decimal.RequireFromString("19.50"))
	require.NoError(t, err)

	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("58.50")))
}

func TestSetQuantity(t *testing.T) {
	line, err := NewLine("l1", "u1", "p1", 2, decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.ErrorIs(t, line.SetQuantity(0), ErrInvalidQuantity)
	require.NoError(t, line.SetQuantity(7))
	assert.Equal(t, 7, line.Quantity)
}
