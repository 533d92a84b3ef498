package order

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshots() []ItemSnapshot {
	return []ItemSnapshot{
		{ProductID: "p1", ProductName: "Keyboard", Quantity: 2, UnitPrice: decimal.RequireFromString("49.90")},
		{ProductID: "p2", ProductName: "Mouse", Quantity: 1, UnitPrice: decimal.RequireFromString("19.50")},
	}
}

func TestNew_ComputesTotalFromLockedPrices(t *testing.T) {
	o, err := New("id-1", "ORD-20260830-AAAA", "user-1", snapshots(), ShippingAddress{City: "Jakarta"})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("119.30")), "got %s", o.TotalAmount)

	// Mutating the caller's slice must not reach into the order.
	items := snapshots()
	o2, err := New("id-2", "ORD-20260830-BBBB", "user-1", items, ShippingAddress{})
	require.NoError(t, err)
	items[0].Quantity = 99
	assert.Equal(t, 2, o2.Items[0].Quantity)
}

func TestNew_RejectsEmptyAndInvalidItems(t *testing.T) {
	_, err := New("id-1", "n", "user-1", nil, ShippingAddress{})
	assert.ErrorIs(t, err, ErrEmptyItems)

	_, err = New("id-1", "n", "user-1", []ItemSnapshot{{ProductID: "p1", Quantity: 0}}, ShippingAddress{})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestStateMachine_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		apply   func(*Order) error
		want    Status
		wantErr error
	}{
		{"pending confirm", StatusPending, (*Order).ConfirmPayment, StatusProcessing, nil},
		{"pending complete", StatusPending, (*Order).Complete, StatusCompleted, nil},
		{"pending cancel", StatusPending, (*Order).Cancel, StatusCancelled, nil},
		{"processing confirm", StatusProcessing, (*Order).ConfirmPayment, StatusProcessing, ErrInvalidStateTransition},
		{"processing complete", StatusProcessing, (*Order).Complete, StatusCompleted, nil},
		{"processing cancel", StatusProcessing, (*Order).Cancel, StatusCancelled, nil},
		{"completed confirm", StatusCompleted, (*Order).ConfirmPayment, StatusCompleted, ErrInvalidStateTransition},
		{"completed cancel", StatusCompleted, (*Order).Cancel, StatusCompleted, ErrInvalidStateTransition},
		{"cancelled complete", StatusCancelled, (*Order).Complete, StatusCancelled, ErrInvalidStateTransition},
		{"cancelled cancel", StatusCancelled, (*Order).Cancel, StatusCancelled, ErrInvalidStateTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New("id", "n", "u", snapshots(), ShippingAddress{})
			require.NoError(t, err)
			o.Status = tt.from

			err = tt.apply(o)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, o.Status)
		})
	}
}

func TestTransitionTo_RejectsPendingAndUnknownTargets(t *testing.T) {
	o, err := New("id", "n", "u", snapshots(), ShippingAddress{})
	require.NoError(t, err)

	assert.ErrorIs(t, o.TransitionTo(StatusPending), ErrInvalidStateTransition)
	assert.ErrorIs(t, o.TransitionTo(Status("shipped")), ErrInvalidStatus)

	require.NoError(t, o.TransitionTo(StatusProcessing))
	assert.Equal(t, StatusProcessing, o.Status)
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestNumberGenerator_Format(t *testing.T) {
	g := NewNumberGenerator()
	pattern := regexp.MustCompile(`^ORD-\d{8}-[0-9A-Z]{4}$`)

	for i := 0; i < 50; i++ {
		n := g.Next()
		assert.Regexp(t, pattern, n)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("processing")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, s)

	_, err = ParseStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
