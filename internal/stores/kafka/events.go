package kafka

import "time"

// Topics carried by the broker. Keys are order numbers / user ids so
// per-entity ordering is preserved within a partition.
const (
	TopicOrderPlaced    = "orders.order-placed"
	TopicStatusChanged  = "orders.status-changed"
	TopicAccountCreated = "users.account-created"
)

// OrderPlacedEvent is emitted when checkout commits.
type OrderPlacedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Total       int64     `json:"total"`
	CreatedAt   time.Time `json:"created_at"`
}

// StatusChangedEvent is emitted for every order status transition.
type StatusChangedEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	Reason      string    `json:"reason"`
	ChangedBy   string    `json:"changed_by"`
	ChangedAt   time.Time `json:"changed_at"`
}

// AccountCreatedEvent is emitted after registration commits.
type AccountCreatedEvent struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
