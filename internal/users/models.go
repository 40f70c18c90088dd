package users

import "time"

// Tier is the customer segmentation label driven by accumulated points.
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// Tier thresholds in lifetime points. One point per 10.000đ spent.
const (
	silverAt   = 1000
	goldAt     = 5000
	platinumAt = 15000
)

// TierFor maps lifetime points onto a tier.
func TierFor(points int64) Tier {
	switch {
	case points >= platinumAt:
		return TierPlatinum
	case points >= goldAt:
		return TierGold
	case points >= silverAt:
		return TierSilver
	default:
		return TierBronze
	}
}

// User is a user row with the password hash stripped.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	IsAdmin       bool      `json:"is_admin"`
	EmailVerified bool      `json:"email_verified"`
	LoyaltyPoints int64     `json:"loyalty_points"`
	LoyaltyTier   Tier      `json:"loyalty_tier"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// OrderCount is populated on admin listings; it drives the deletion guard.
	OrderCount int `json:"order_count,omitempty"`
}

// NewUser is the registration payload.
type NewUser struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Phone    string `json:"phone" validate:"omitempty,min=9,max=12"`
	Address  string `json:"address"`
}

// ProfileUpdate carries the fields a user may edit themselves.
type ProfileUpdate struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"omitempty,min=9,max=12"`
	Address string `json:"address"`
}

// LoyaltyEntry is one row of the points history.
type LoyaltyEntry struct {
	Points    int64     `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
