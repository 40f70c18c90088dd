package cart

// CartItem is a cart row joined with current product data for display.
type CartItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
}

type CartResponse struct {
	Items    []CartItem `json:"items"`
	Subtotal int64      `json:"subtotal"`
}

// ItemRef is a (product, quantity) pair as submitted by the client for
// validation; Name is echoed back in messages for items that no longer exist.
type ItemRef struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Name      string `json:"name"`
}

// Verdict classes for a validated cart item. Exactly one applies per item.
const (
	VerdictValid             = "valid"
	VerdictNotFound          = "not_found"
	VerdictInactive          = "inactive"
	VerdictOutOfStock        = "out_of_stock"
	VerdictInsufficientStock = "insufficient_stock"
)

// Verdict is the validation result for one cart item. Stock is populated for
// insufficient_stock so the client can offer to lower the quantity.
type Verdict struct {
	ProductID string `json:"product_id"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Stock     int    `json:"stock,omitempty"`
}

// Valid reports whether the whole set may proceed to checkout.
func AllValid(verdicts []Verdict) bool {
	for _, v := range verdicts {
		if v.Status != VerdictValid {
			return false
		}
	}
	return true
}
