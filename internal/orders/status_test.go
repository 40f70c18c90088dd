package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransitionTable(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusAwaitingPayment},
		{StatusPending, StatusShipping},
		{StatusPending, StatusCancelled},
		{StatusAwaitingPayment, StatusShipping},
		{StatusAwaitingPayment, StatusCancelled},
		{StatusShipping, StatusDelivered},
		{StatusShipping, StatusCancelled},
		{StatusDelivered, StatusCompleted},
	}
	for _, tc := range legal {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be legal", tc.from, tc.to)
	}

	illegal := []struct{ from, to Status }{
		{StatusPending, StatusDelivered},
		{StatusPending, StatusCompleted},
		{StatusAwaitingPayment, StatusDelivered},
		{StatusShipping, StatusCompleted},
		{StatusDelivered, StatusCancelled},
		{StatusDelivered, StatusShipping},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusShipping, StatusPending},
	}
	for _, tc := range illegal {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be illegal", tc.from, tc.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipping.Terminal())
	assert.False(t, Status("BOGUS").Terminal())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus(Status("DRAFT")))
	assert.False(t, ValidStatus(Status("")))
}

func TestCheckTransitionRejectsIllegal(t *testing.T) {
	err := CheckTransition(StatusDelivered, StatusCancelled, ActorAdmin, "khách đổi ý")
	assert.ErrorIs(t, err, ErrIllegalTransition)

	err = CheckTransition(Status("BOGUS"), StatusShipping, ActorAdmin, "")
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestCancellationRequiresReason(t *testing.T) {
	err := CheckTransition(StatusPending, StatusCancelled, ActorCustomer, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	err = CheckTransition(StatusShipping, StatusCancelled, ActorAdmin, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	err = CheckTransition(StatusPending, StatusCancelled, ActorCustomer, "đặt nhầm số lượng")
	assert.NoError(t, err)
}

func TestCustomerCancelWindow(t *testing.T) {
	// Customers may cancel while the order has not shipped.
	assert.NoError(t, CheckTransition(StatusPending, StatusCancelled, ActorCustomer, "lý do"))
	assert.NoError(t, CheckTransition(StatusAwaitingPayment, StatusCancelled, ActorCustomer, "lý do"))

	// Past that point only an admin can.
	err := CheckTransition(StatusShipping, StatusCancelled, ActorCustomer, "lý do")
	assert.ErrorIs(t, err, ErrCancelNotAllowed)

	assert.NoError(t, CheckTransition(StatusShipping, StatusCancelled, ActorAdmin, "giao hàng thất bại"))

	assert.True(t, CustomerCanCancel(StatusPending))
	assert.True(t, CustomerCanCancel(StatusAwaitingPayment))
	assert.False(t, CustomerCanCancel(StatusShipping))
	assert.False(t, CustomerCanCancel(StatusDelivered))
	assert.False(t, CustomerCanCancel(StatusCompleted))
	assert.False(t, CustomerCanCancel(StatusCancelled))
}

func TestGatewayMarksPaidViaShipping(t *testing.T) {
	assert.NoError(t, CheckTransition(StatusAwaitingPayment, StatusShipping, ActorGateway, ""))
}
