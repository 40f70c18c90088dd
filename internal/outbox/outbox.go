package outbox

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"
)

// Producer is the piece of the kafka store the relay needs.
type Producer interface {
	ProduceMessage(topic string, key, value []byte) error
}

// Row is one pending outbox message.
type Row struct {
	ID      int64
	Topic   string
	Key     string
	Payload []byte
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

// InsertTx appends an event inside the caller's transaction, so the event
// exists if and only if the state change committed.
func InsertTx(ctx context.Context, tx *sql.Tx, topic, key string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox (topic, key, payload) VALUES ($1, $2, $3)`, topic, key, payload)
	if err != nil {
		return fmt.Errorf("failed to insert outbox row: %w", err)
	}
	return nil
}

// Insert appends an event outside any transaction, for flows whose state
// change is a single statement.
func (c *Conf) Insert(ctx context.Context, topic, key string, payload []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO outbox (topic, key, payload) VALUES ($1, $2, $3)`, topic, key, payload)
	if err != nil {
		return fmt.Errorf("failed to insert outbox row: %w", err)
	}
	return nil
}

// RelayOnce pushes up to limit pending rows to kafka and marks them done.
func (c *Conf) RelayOnce(ctx context.Context, producer Producer, limit int) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, topic, key, payload
		FROM outbox
		WHERE NOT done
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return fmt.Errorf("failed to query pending outbox: %w", err)
	}
	defer rows.Close()

	var pending []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ID, &r.Topic, &r.Key, &r.Payload); err != nil {
			return fmt.Errorf("failed to scan outbox row: %w", err)
		}
		pending = append(pending, r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating outbox rows: %w", err)
	}

	for _, r := range pending {
		if err := producer.ProduceMessage(r.Topic, []byte(r.Key), r.Payload); err != nil {
			// Leave the row pending; the next pass retries it.
			return fmt.Errorf("failed to produce outbox row %d: %w", r.ID, err)
		}
		if _, err := c.db.ExecContext(ctx, `UPDATE outbox SET done = TRUE WHERE id = $1`, r.ID); err != nil {
			return fmt.Errorf("failed to mark outbox row %d done: %w", r.ID, err)
		}
	}
	return nil
}

// Relay loops RelayOnce until the context is cancelled. Errors are logged
// and retried on the next tick, never fatal.
func (c *Conf) Relay(ctx context.Context, producer Producer, interval time.Duration, limit int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.RelayOnce(ctx, producer, limit); err != nil {
				slog.Error("outbox relay pass failed", slog.String(logkey.ERROR, err.Error()))
			}
		}
	}
}
