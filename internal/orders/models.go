package orders

import "time"

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PayCOD     PaymentMethod = "COD"
	PayBanking PaymentMethod = "BANKING"
	PayMomo    PaymentMethod = "MOMO"
	PayZaloPay PaymentMethod = "ZALOPAY"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCOD, PayBanking, PayMomo, PayZaloPay:
		return true
	}
	return false
}

// ViaGateway reports whether the method settles through the hosted payment
// gateway. Everything except cash on delivery does.
func (m PaymentMethod) ViaGateway() bool {
	return m != PayCOD
}

// InitialStatus is the status a fresh order starts in: gateway-paid orders
// wait for the payment callback, COD goes straight to PENDING.
func InitialStatus(m PaymentMethod) Status {
	if m.ViaGateway() {
		return StatusAwaitingPayment
	}
	return StatusPending
}

// Order represents an order row. Money fields are VND.
type Order struct {
	ID            string        `json:"id"`
	OrderNumber   string        `json:"order_number"`
	UserID        string        `json:"user_id"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Subtotal      int64         `json:"subtotal"`
	Discount      int64         `json:"discount"`
	DiscountCode  string        `json:"discount_code,omitempty"`
	ShippingFee   int64         `json:"shipping_fee"`
	Total         int64         `json:"total"`
	ShippingName  string        `json:"shipping_name"`
	ShippingPhone string        `json:"shipping_phone"`
	ShippingAddr  string        `json:"shipping_addr"`
	Note          string        `json:"note,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty"`
	// CanCancel tells the client whether to offer the cancel action.
	CanCancel bool `json:"can_cancel"`
}

// OrderItem snapshots name/price/image at checkout so later product edits
// never change order history.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

// StatusLog is one append-only audit row; rows are never mutated or deleted.
type StatusLog struct {
	ID        int64     `json:"id"`
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewOrder is everything checkout needs to persist an order. Items must
// already be verdict-checked and priced server-side.
type NewOrder struct {
	UserID        string
	PaymentMethod PaymentMethod
	Items         []OrderItem
	Subtotal      int64
	Discount      int64
	DiscountCode  string
	ShippingFee   int64
	ShippingName  string
	ShippingPhone string
	ShippingAddr  string
	Note          string
}

func (n NewOrder) Total() int64 {
	total := n.Subtotal - n.Discount + n.ShippingFee
	if total < 0 {
		total = 0
	}
	return total
}
