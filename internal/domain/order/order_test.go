package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusPending, StatusRefunded, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusProcessing, StatusPending, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusShipped, StatusProcessing, false},
		{StatusCancelled, StatusRefunded, true},
		{StatusCancelled, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusDelivered, StatusRefunded, false},
		{StatusRefunded, StatusCancelled, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusRefunded.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.False(t, StatusShipped.Terminal())
	// CANCELLED still admits the refund effect
	assert.False(t, StatusCancelled.Terminal())
}

func TestStatus_Cancellable(t *testing.T) {
	assert.True(t, StatusPending.Cancellable())
	assert.True(t, StatusProcessing.Cancellable())
	assert.True(t, StatusShipped.Cancellable())
	assert.False(t, StatusDelivered.Cancellable())
	assert.False(t, StatusCancelled.Cancellable())
	assert.False(t, StatusRefunded.Cancellable())
}

func TestOrder_Transition(t *testing.T) {
	t.Run("AllowedTransitionUpdatesStatus", func(t *testing.T) {
		o := &Order{Status: StatusPending, UpdatedAt: time.Now().Add(-time.Hour)}
		before := o.UpdatedAt

		err := o.Transition(StatusProcessing)

		require.NoError(t, err)
		assert.Equal(t, StatusProcessing, o.Status)
		assert.True(t, o.UpdatedAt.After(before), "UpdatedAt should advance on transition")
	})

	t.Run("ForbiddenTransitionLeavesOrderUntouched", func(t *testing.T) {
		updatedAt := time.Now().Add(-time.Hour)
		o := &Order{Status: StatusDelivered, UpdatedAt: updatedAt}

		err := o.Transition(StatusCancelled)

		require.Error(t, err)
		var invalidErr ErrInvalidTransition
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, StatusDelivered, invalidErr.From)
		assert.Equal(t, StatusCancelled, invalidErr.To)
		assert.Equal(t, StatusDelivered, o.Status)
		assert.Equal(t, updatedAt, o.UpdatedAt)
	})

	t.Run("FullLifecycle", func(t *testing.T) {
		o := &Order{Status: StatusPending}
		require.NoError(t, o.Transition(StatusProcessing))
		require.NoError(t, o.Transition(StatusShipped))
		require.NoError(t, o.Transition(StatusDelivered))
		assert.True(t, o.Status.Terminal())
	})

	t.Run("CancelThenRefund", func(t *testing.T) {
		o := &Order{Status: StatusShipped}
		require.NoError(t, o.Transition(StatusCancelled))
		require.NoError(t, o.Transition(StatusRefunded))
		assert.True(t, o.Status.Terminal())
	})
}

func TestDetail_LineTotal(t *testing.T) {
	d := &Detail{
		ID:        uuid.New(),
		OrderID:   uuid.New(),
		VariantID: uuid.New(),
		Quantity:  3,
		PriceEach: decimal.RequireFromString("19.99"),
	}

	assert.True(t, decimal.RequireFromString("59.97").Equal(d.LineTotal()))
}
