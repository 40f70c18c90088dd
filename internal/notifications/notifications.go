package notifications

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Notification types shown in the per-user inbox.
const (
	TypeOrder     = "order"
	TypePromotion = "promotion"
	TypeSystem    = "system"
)

type Notification struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	IsRead    bool            `json:"is_read"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
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

func (c *Conf) Insert(ctx context.Context, userID, title, message, typ string, data json.RawMessage) error {
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, data)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, title, message, typ, data)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// List returns the user's inbox, newest first, with the unread count the
// client polls for.
func (c *Conf) List(ctx context.Context, userID string, limit, offset int) ([]Notification, int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, user_id, title, message, type, is_read, data, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var list []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type,
			&n.IsRead, &n.Data, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}

	var unread int
	err = c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&unread)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return list, unread, nil
}

func (c *Conf) MarkRead(ctx context.Context, userID string, id int64) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (c *Conf) MarkAllRead(ctx context.Context, userID string) error {
	_, err := c.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}
