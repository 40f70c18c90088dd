package users

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int64
		tier   Tier
	}{
		{0, TierBronze},
		{999, TierBronze},
		{1000, TierSilver},
		{4999, TierSilver},
		{5000, TierGold},
		{14999, TierGold},
		{15000, TierPlatinum},
		{100000, TierPlatinum},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.tier, TierFor(tc.points), "points=%d", tc.points)
	}
}

func TestPointsForTotal(t *testing.T) {
	assert.Equal(t, int64(0), PointsForTotal(9999))
	assert.Equal(t, int64(1), PointsForTotal(10000))
	assert.Equal(t, int64(50), PointsForTotal(505000))
	assert.Equal(t, int64(0), PointsForTotal(0))
}

func TestCheckDeletable(t *testing.T) {
	assert.NoError(t, CheckDeletable(false, 0))
	assert.ErrorIs(t, CheckDeletable(false, 3), ErrHasOrders)
	assert.ErrorIs(t, CheckDeletable(true, 0), ErrIsAdmin)

	// Admin takes precedence over order history.
	assert.ErrorIs(t, CheckDeletable(true, 5), ErrIsAdmin)
}
