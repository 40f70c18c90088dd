package discounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("discount code not found")
	ErrBelowMinimum = errors.New("subtotal below the code's minimum")
)

// Code is a discount code row. Amount is a flat VND discount; Percentage
// discounts the subtotal. At most one of the two is non-zero.
type Code struct {
	Code         string `json:"code"`
	Description  string `json:"description"`
	MinAmount    int64  `json:"min_amount"`
	Amount       int64  `json:"amount"`
	Percentage   int    `json:"percentage"`
	FreeShipping bool   `json:"free_shipping"`
	IsActive     bool   `json:"is_active"`
}

// Applied is the outcome of applying a code to a subtotal.
type Applied struct {
	Code         string `json:"code"`
	Discount     int64  `json:"discount"`
	FreeShipping bool   `json:"free_shipping"`
}

// Apply computes the discount for a subtotal. The minimum is inclusive:
// a subtotal exactly at min_amount qualifies.
func (c Code) Apply(subtotal int64) (Applied, error) {
	if subtotal < c.MinAmount {
		return Applied{}, ErrBelowMinimum
	}
	discount := c.Amount
	if c.Percentage > 0 {
		discount = subtotal * int64(c.Percentage) / 100
	}
	if discount > subtotal {
		discount = subtotal
	}
	return Applied{Code: c.Code, Discount: discount, FreeShipping: c.FreeShipping}, nil
}

// RemovalReason maps a re-validation failure to the notice shown when an
// applied code is taken off the cart. removed is false when the code still
// holds, or when the failure is infrastructure and the caller should log it.
func RemovalReason(err error) (message string, removed bool) {
	switch {
	case errors.Is(err, ErrBelowMinimum):
		return "Mã giảm giá đã bị gỡ vì đơn hàng không còn đạt giá trị tối thiểu", true
	case errors.Is(err, ErrNotFound):
		return "Mã giảm giá không còn hiệu lực", true
	}
	return "", false
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

func (c *Conf) GetCode(ctx context.Context, code string) (Code, error) {
	query := `
		SELECT code, description, min_amount, amount, percentage, free_shipping, is_active
		FROM discount_codes
		WHERE code = $1 AND is_active = TRUE
	`
	var dc Code
	err := c.db.QueryRowContext(ctx, query, code).Scan(&dc.Code, &dc.Description,
		&dc.MinAmount, &dc.Amount, &dc.Percentage, &dc.FreeShipping, &dc.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Code{}, ErrNotFound
		}
		return Code{}, fmt.Errorf("failed to query discount code: %w", err)
	}
	return dc, nil
}

// Validate looks up a code and applies it against the subtotal in one step.
func (c *Conf) Validate(ctx context.Context, code string, subtotal int64) (Applied, error) {
	dc, err := c.GetCode(ctx, code)
	if err != nil {
		return Applied{}, err
	}
	return dc.Apply(subtotal)
}
