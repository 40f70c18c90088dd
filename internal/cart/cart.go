package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrEmptyCart = errors.New("no active cart")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

// activeCartID finds the user's active cart inside tx, creating one when
// create is set.
func activeCartID(ctx context.Context, tx *sql.Tx, userID string, create bool) (int64, error) {
	var cartID int64
	queryActiveCart := `
		SELECT id
		FROM cart
		WHERE user_id = $1 AND status = 'active'
		FOR UPDATE
	`
	err := tx.QueryRowContext(ctx, queryActiveCart, userID).Scan(&cartID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if !create {
				return 0, ErrEmptyCart
			}
			queryCreateCart := `
				INSERT INTO cart (user_id, status, created_at, updated_at)
				VALUES ($1, 'active', NOW(), NOW())
				RETURNING id
			`
			if err := tx.QueryRowContext(ctx, queryCreateCart, userID).Scan(&cartID); err != nil {
				return 0, fmt.Errorf("failed to create new cart: %w", err)
			}
			return cartID, nil
		}
		return 0, fmt.Errorf("failed to query active cart: %w", err)
	}
	return cartID, nil
}

// AddToCartDB inserts the product into the user's active cart or bumps the
// existing quantity, refusing to exceed the stock the caller just checked.
func (c *Conf) AddToCartDB(ctx context.Context, userID, productID string, quantity, stock int) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID, true)
		if err != nil {
			return err
		}

		queryCartItem := `
			SELECT id, quantity
			FROM cart_items
			WHERE cart_id = $1 AND product_id = $2
		`
		var cartItemID int64
		var existingQuantity int

		err = tx.QueryRowContext(ctx, queryCartItem, cartID, productID).Scan(&cartItemID, &existingQuantity)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				if quantity > stock {
					return fmt.Errorf("insufficient stock: requested %d, available %d", quantity, stock)
				}
				queryAddCartItem := `
					INSERT INTO cart_items (cart_id, product_id, quantity, created_at, updated_at)
					VALUES ($1, $2, $3, NOW(), NOW())
				`
				if _, err := tx.ExecContext(ctx, queryAddCartItem, cartID, productID, quantity); err != nil {
					return fmt.Errorf("failed to add product to cart: %w", err)
				}
				return nil
			}
			return fmt.Errorf("failed to query cart items: %w", err)
		}

		newQuantity := existingQuantity + quantity
		if newQuantity > stock {
			return fmt.Errorf("insufficient stock: requested %d, available %d", newQuantity, stock)
		}
		queryUpdateCartItem := `
			UPDATE cart_items
			SET quantity = $1, updated_at = NOW()
			WHERE id = $2
		`
		if _, err := tx.ExecContext(ctx, queryUpdateCartItem, newQuantity, cartItemID); err != nil {
			return fmt.Errorf("failed to update cart item quantity: %w", err)
		}
		return nil
	})
}

// GetActiveCartItems returns the user's cart joined with live product data.
// A user with no active cart gets an empty response, not an error.
func (c *Conf) GetActiveCartItems(ctx context.Context, userID string) (*CartResponse, error) {
	var items []CartItem
	var subtotal int64

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID, false)
		if err != nil {
			if errors.Is(err, ErrEmptyCart) {
				return nil
			}
			return err
		}

		queryItems := `
			SELECT ci.product_id, p.name, p.price, COALESCE(p.images ->> 0, ''), ci.quantity
			FROM cart_items ci
			JOIN products p ON p.id = ci.product_id
			WHERE ci.cart_id = $1
			ORDER BY ci.created_at
		`
		rows, err := tx.QueryContext(ctx, queryItems, cartID)
		if err != nil {
			return fmt.Errorf("failed to query cart items: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var item CartItem
			if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.Image, &item.Quantity); err != nil {
				return fmt.Errorf("failed to scan cart item: %w", err)
			}
			subtotal += item.Price * int64(item.Quantity)
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return &CartResponse{Items: items, Subtotal: subtotal}, nil
}

// UpdateQuantity sets an item's quantity; zero removes it.
func (c *Conf) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("quantity must not be negative, got %d", quantity)
	}
	return c.withTx(ctx, func(tx *sql.Tx) error {
		cartID, err := activeCartID(ctx, tx, userID, false)
		if err != nil {
			return err
		}
		if quantity == 0 {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
			if err != nil {
				return fmt.Errorf("failed to remove cart item: %w", err)
			}
			return nil
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE cart_items
			SET quantity = $3, updated_at = NOW()
			WHERE cart_id = $1 AND product_id = $2
		`, cartID, productID, quantity)
		if err != nil {
			return fmt.Errorf("failed to update cart item: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("product %s is not in the cart", productID)
		}
		return nil
	})
}

// ClearCart marks the active cart as checked out; the next add starts a
// fresh one.
func (c *Conf) ClearCart(ctx context.Context, userID string) error {
	return c.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE cart
			SET status = 'checked_out', updated_at = NOW()
			WHERE user_id = $1 AND status = 'active'
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		er := tx.Rollback()
		if er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return fmt.Errorf("failed to execute withTx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
