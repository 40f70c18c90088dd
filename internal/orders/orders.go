package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/outbox"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/stores/kafka"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrAmountMismatch    = errors.New("paid amount does not match the order total")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// NewOrderNumber builds the customer-facing order number.
func NewOrderNumber(now time.Time) string {
	short := strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
	return fmt.Sprintf("MPH-%s-%s", now.Format("20060102"), short)
}

const orderColumns = `id, order_number, user_id, status, payment_method, subtotal, discount,
discount_code, shipping_fee, total, shipping_name, shipping_phone, shipping_addr, note,
paid_at, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentMethod,
		&o.Subtotal, &o.Discount, &o.DiscountCode, &o.ShippingFee, &o.Total,
		&o.ShippingName, &o.ShippingPhone, &o.ShippingAddr, &o.Note,
		&o.PaidAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.CanCancel = CustomerCanCancel(o.Status)
	return o, nil
}

// CreateOrder persists a checked-out cart: stock decrements, the order, its
// item snapshots, the initial status log row and the order-placed event all
// commit or roll back together. Stock decrement is guarded so two concurrent
// checkouts cannot drive stock negative; the loser gets ErrInsufficientStock.
func (c *Conf) CreateOrder(ctx context.Context, n NewOrder) (Order, error) {
	var created Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		for _, item := range n.Items {
			res, err := tx.ExecContext(ctx, `
				UPDATE products
				SET stock = stock - $2, updated_at = NOW()
				WHERE id = $1 AND stock >= $2 AND is_active = TRUE
			`, item.ProductID, item.Quantity)
			if err != nil {
				return fmt.Errorf("failed to decrement stock for %s: %w", item.ProductID, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			if affected == 0 {
				return fmt.Errorf("%w: product %s", ErrInsufficientStock, item.ProductID)
			}
		}

		now := time.Now().UTC()
		orderID := uuid.NewString()
		orderNumber := NewOrderNumber(now)

		query := `
			INSERT INTO orders (id, order_number, user_id, status, payment_method, subtotal,
			                    discount, discount_code, shipping_fee, total, shipping_name,
			                    shipping_phone, shipping_addr, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING ` + orderColumns
		initial := InitialStatus(n.PaymentMethod)
		row := tx.QueryRowContext(ctx, query, orderID, orderNumber, n.UserID, string(initial),
			string(n.PaymentMethod), n.Subtotal, n.Discount, n.DiscountCode, n.ShippingFee,
			n.Total(), n.ShippingName, n.ShippingPhone, n.ShippingAddr, n.Note)
		o, err := scanOrder(row)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, item := range n.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, name, price, quantity, image)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, orderID, item.ProductID, item.Name, item.Price, item.Quantity, item.Image)
			if err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		if err := appendStatusLog(ctx, tx, orderID, initial, "Đơn hàng được tạo", string(ActorCustomer)); err != nil {
			return err
		}

		payload, err := json.Marshal(kafka.OrderPlacedEvent{
			OrderID:     orderID,
			OrderNumber: orderNumber,
			UserID:      n.UserID,
			Total:       n.Total(),
			CreatedAt:   now,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal order-placed event: %w", err)
		}
		if err := outbox.InsertTx(ctx, tx, kafka.TopicOrderPlaced, orderNumber, payload); err != nil {
			return err
		}

		o.Items = n.Items
		created = o
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return created, nil
}

func appendStatusLog(ctx context.Context, tx *sql.Tx, orderID string, status Status, reason, changedBy string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO order_status_logs (order_id, status, reason, changed_by)
		VALUES ($1, $2, $3, $4)
	`, orderID, string(status), reason, changedBy)
	if err != nil {
		return fmt.Errorf("failed to append status log: %w", err)
	}
	return nil
}

// Transition moves an order to a new status. The transition table is checked
// against the CURRENT row inside the transaction, and the status update, the
// audit log append and the status-changed event commit atomically.
func (c *Conf) Transition(ctx context.Context, orderID string, to Status, actor Actor, actorID, reason string) (Order, error) {
	var updated Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		o, err := lockOrder(ctx, tx, "id", orderID)
		if err != nil {
			return err
		}
		updated, err = transitionLocked(ctx, tx, o, to, actor, actorID, reason)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

// lockOrder reads one order FOR UPDATE inside tx. column is one of the fixed
// lookup keys ("id" or "order_number"), never user input.
func lockOrder(ctx context.Context, tx *sql.Tx, column string, arg any) (Order, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE `+column+` = $1 FOR UPDATE`, arg)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

// transitionLocked performs the status change on an order the caller has
// already locked in tx.
func transitionLocked(ctx context.Context, tx *sql.Tx, o Order, to Status, actor Actor, actorID, reason string) (Order, error) {
	if err := CheckTransition(o.Status, to, actor, reason); err != nil {
		return Order{}, err
	}

	paidAt := o.PaidAt
	if to == StatusShipping && actor == ActorGateway && paidAt == nil {
		now := time.Now().UTC()
		paidAt = &now
	}
	row := tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $2, paid_at = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns, o.ID, string(to), paidAt)
	updated, err := scanOrder(row)
	if err != nil {
		return Order{}, fmt.Errorf("failed to update order status: %w", err)
	}

	if err := appendStatusLog(ctx, tx, o.ID, to, reason, string(actor)); err != nil {
		return Order{}, err
	}

	// Cancelling puts the reserved stock back on the shelf.
	if to == StatusCancelled {
		if err := restockItems(ctx, tx, o.ID); err != nil {
			return Order{}, err
		}
	}

	// Completion is when loyalty points are earned.
	if to == StatusCompleted {
		points := users.PointsForTotal(o.Total)
		reason := fmt.Sprintf("Tích điểm đơn hàng %s", o.OrderNumber)
		if err := users.AwardPointsTx(ctx, tx, o.UserID, points, reason); err != nil {
			return Order{}, err
		}
	}

	payload, err := json.Marshal(kafka.StatusChangedEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		From:        string(o.Status),
		To:          string(to),
		Reason:      reason,
		ChangedBy:   actorID,
		ChangedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Order{}, fmt.Errorf("failed to marshal status-changed event: %w", err)
	}
	if err := outbox.InsertTx(ctx, tx, kafka.TopicStatusChanged, o.OrderNumber, payload); err != nil {
		return Order{}, err
	}
	return updated, nil
}

func restockItems(ctx context.Context, tx *sql.Tx, orderID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products p
		SET stock = p.stock + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.product_id = p.id
	`, orderID)
	if err != nil {
		return fmt.Errorf("failed to restock items: %w", err)
	}
	return nil
}

// MarkPaid settles an order from a verified gateway callback. The replay and
// amount guards run on the locked row inside the transaction, so two
// concurrent callbacks for the same order cannot both pass them; the loser
// waits on the lock and then sees ErrAlreadyPaid.
func (c *Conf) MarkPaid(ctx context.Context, orderNumber string, amount int64, txnRef string) (Order, error) {
	var updated Order
	err := c.withTx(ctx, func(tx *sql.Tx) error {
		o, err := lockOrder(ctx, tx, "order_number", orderNumber)
		if err != nil {
			return err
		}
		if err := checkSettlement(o, amount); err != nil {
			return err
		}
		reason := fmt.Sprintf("Thanh toán VNPay thành công (mã GD %s)", txnRef)
		updated, err = transitionLocked(ctx, tx, o, StatusShipping, ActorGateway, "vnpay", reason)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	return updated, nil
}

// checkSettlement rejects replayed and mispriced settlements.
func checkSettlement(o Order, amount int64) error {
	if o.PaidAt != nil {
		return ErrAlreadyPaid
	}
	if o.Total != amount {
		return fmt.Errorf("%w: got %d, want %d", ErrAmountMismatch, amount, o.Total)
	}
	return nil
}

func (c *Conf) GetByOrderNumber(ctx context.Context, orderNumber string) (Order, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("failed to query order: %w", err)
	}
	return o, nil
}

// GetOrder fetches one order with its items and status timeline.
func (c *Conf) GetOrder(ctx context.Context, orderID string) (Order, []StatusLog, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, nil, ErrNotFound
		}
		return Order{}, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemRows, err := c.db.QueryContext(ctx, `
		SELECT product_id, name, price, quantity, image
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return Order{}, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it OrderItem
		if err := itemRows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &it.Image); err != nil {
			return Order{}, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	if err := itemRows.Err(); err != nil {
		return Order{}, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	logRows, err := c.db.QueryContext(ctx, `
		SELECT id, order_id, status, reason, changed_by, changed_at
		FROM order_status_logs
		WHERE order_id = $1
		ORDER BY id
	`, orderID)
	if err != nil {
		return Order{}, nil, fmt.Errorf("failed to query status logs: %w", err)
	}
	defer logRows.Close()

	var logs []StatusLog
	for logRows.Next() {
		var l StatusLog
		if err := logRows.Scan(&l.ID, &l.OrderID, &l.Status, &l.Reason, &l.ChangedBy, &l.ChangedAt); err != nil {
			return Order{}, nil, fmt.Errorf("failed to scan status log: %w", err)
		}
		logs = append(logs, l)
	}
	return o, logs, logRows.Err()
}

// ListForUser returns a user's orders, newest first.
func (c *Conf) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// ListAll is the admin listing with an optional status filter.
func (c *Conf) ListAll(ctx context.Context, status Status, limit, offset int) ([]Order, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
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
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
