package discounts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyMinimumIsInclusive(t *testing.T) {
	code := Code{Code: "SAVE5", MinAmount: 500000, Percentage: 5}

	_, err := code.Apply(499999)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	applied, err := code.Apply(500000)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), applied.Discount)
}

func TestApplyPercentage(t *testing.T) {
	code := Code{Code: "SAVE5", MinAmount: 500000, Percentage: 5}

	applied, err := code.Apply(1000000)
	require.NoError(t, err)
	assert.Equal(t, "SAVE5", applied.Code)
	assert.Equal(t, int64(50000), applied.Discount)

	// Integer VND, truncated.
	applied, err = code.Apply(500010)
	require.NoError(t, err)
	assert.Equal(t, int64(25000), applied.Discount)
}

func TestApplyFlatAmount(t *testing.T) {
	code := Code{Code: "WELCOME50", Amount: 50000}

	applied, err := code.Apply(200000)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), applied.Discount)

	// Flat discounts never exceed the subtotal.
	applied, err = code.Apply(30000)
	require.NoError(t, err)
	assert.Equal(t, int64(30000), applied.Discount)
}

func TestApplyFreeShipping(t *testing.T) {
	code := Code{Code: "FREESHIP", MinAmount: 300000, FreeShipping: true}

	applied, err := code.Apply(300000)
	require.NoError(t, err)
	assert.True(t, applied.FreeShipping)
	assert.Equal(t, int64(0), applied.Discount)
}

func TestRemovalReason(t *testing.T) {
	// A code that no longer reaches its minimum is removed with the
	// below-minimum notice.
	message, removed := RemovalReason(ErrBelowMinimum)
	assert.True(t, removed)
	assert.Equal(t, "Mã giảm giá đã bị gỡ vì đơn hàng không còn đạt giá trị tối thiểu", message)

	// A code that disappeared or was deactivated is removed too, with a
	// different notice.
	message, removed = RemovalReason(ErrNotFound)
	assert.True(t, removed)
	assert.Equal(t, "Mã giảm giá không còn hiệu lực", message)

	// Wrapped sentinels still match.
	_, removed = RemovalReason(fmt.Errorf("revalidate: %w", ErrBelowMinimum))
	assert.True(t, removed)

	// No error, or an infrastructure error, keeps the code in place.
	_, removed = RemovalReason(nil)
	assert.False(t, removed)
	_, removed = RemovalReason(errors.New("connection refused"))
	assert.False(t, removed)
}
