package orders

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewOrderTotal(t *testing.T) {
	n := NewOrder{Subtotal: 500000, Discount: 25000, ShippingFee: 30000}
	assert.Equal(t, int64(505000), n.Total())

	// A discount larger than subtotal plus fee never goes negative.
	n = NewOrder{Subtotal: 10000, Discount: 100000, ShippingFee: 0}
	assert.Equal(t, int64(0), n.Total())
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []PaymentMethod{PayCOD, PayBanking, PayMomo, PayZaloPay} {
		assert.True(t, ValidPaymentMethod(m))
	}
	assert.False(t, ValidPaymentMethod(PaymentMethod("PAYPAL")))
	assert.False(t, ValidPaymentMethod(PaymentMethod("")))
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	num := NewOrderNumber(now)
	assert.True(t, strings.HasPrefix(num, "MPH-20240315-"), num)
	assert.Len(t, num, len("MPH-20240315-")+8)

	// Suffixes are random; two calls must not collide.
	assert.NotEqual(t, num, NewOrderNumber(now))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPending, InitialStatus(PayCOD))
	// Every gateway method waits for the payment callback.
	for _, m := range []PaymentMethod{PayBanking, PayMomo, PayZaloPay} {
		assert.True(t, m.ViaGateway())
		assert.Equal(t, StatusAwaitingPayment, InitialStatus(m))
	}
	assert.False(t, PayCOD.ViaGateway())
}

func TestCheckSettlement(t *testing.T) {
	paid := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

	// A replayed callback on a settled order must surface as ErrAlreadyPaid,
	// never as a transition error.
	assert.ErrorIs(t, checkSettlement(Order{PaidAt: &paid, Total: 150000}, 150000), ErrAlreadyPaid)

	assert.ErrorIs(t, checkSettlement(Order{Total: 150000}, 149000), ErrAmountMismatch)
	assert.NoError(t, checkSettlement(Order{Total: 150000}, 150000))
}
