package products

import (
	"encoding/json"
	"time"
)

// Product represents a product row. Prices are VND (no minor unit).
type Product struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         int64           `json:"price"`
	OriginalPrice int64           `json:"original_price"`
	DiscountPct   int             `json:"discount_pct"`
	Stock         int             `json:"stock"`
	MinStock      int             `json:"min_stock"`
	IsActive      bool            `json:"is_active"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
	Nutrition     json.RawMessage `json:"nutrition"`
	Images        []string        `json:"images"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Category is one seeded storefront navigation entry; products reference it
// by slug in their category column.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// NewProduct is the create payload; validated by the handler.
type NewProduct struct {
	Slug          string          `json:"slug" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Price         int64           `json:"price" validate:"required,min=1000"`
	OriginalPrice int64           `json:"original_price" validate:"min=0"`
	DiscountPct   int             `json:"discount_pct" validate:"min=0,max=100"`
	Stock         int             `json:"stock" validate:"min=0"`
	MinStock      int             `json:"min_stock" validate:"min=0"`
	Category      string          `json:"category" validate:"required"`
	Subcategory   string          `json:"subcategory"`
	Nutrition     json.RawMessage `json:"nutrition"`
	Images        []string        `json:"images"`
}

// LowStock reports whether the product is at or below its reorder threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.MinStock
}
