package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/email"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/notifications"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/stores/kafka"
	"github.com/Kuronil/mephuongthitheo-sub000/internal/users"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Dispatcher turns order/user events into inbox notifications and emails.
// It sits behind the outbox so a request never waits on SMTP, and a crash
// here never loses the business state change.
type Dispatcher struct {
	k    *kafka.Conf
	n    notifications.Conf
	u    users.Conf
	mail *email.Sender
}

func NewDispatcher(k *kafka.Conf, n notifications.Conf, u users.Conf, mail *email.Sender) *Dispatcher {
	return &Dispatcher{k: k, n: n, u: u, mail: mail}
}

// Run consumes until the context is cancelled. Offsets are committed only
// after the per-record side effects ran; once a record in a partition fails,
// the rest of that partition is held back so the failed record gets
// redelivered instead of being skipped over.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		fetches := d.k.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			slog.Error("kafka fetch error", slog.String("topic", topic), slog.String(logkey.ERROR, err.Error()))
		})

		gate := newCommitGate()
		fetches.EachRecord(func(record *kgo.Record) {
			if gate.blocked(record) {
				return
			}
			if err := d.handle(ctx, record); err != nil {
				slog.Error("dispatch failed", slog.String("topic", record.Topic), slog.String(logkey.ERROR, err.Error()))
				gate.fail(record)
				return
			}
			gate.pass(record)
		})
		if done := gate.committable(); len(done) > 0 {
			if err := d.k.CommitRecords(ctx, done...); err != nil {
				slog.Error("commit failed", slog.String(logkey.ERROR, err.Error()))
			}
		}
	}
}

// commitGate decides which consumed records may be committed. Committing a
// record implicitly commits every earlier offset in the same partition, so
// after one failure the rest of that partition must be held back or the
// failed record would never come back.
type commitGate struct {
	failed map[string]struct{}
	done   []*kgo.Record
}

func newCommitGate() *commitGate {
	return &commitGate{failed: make(map[string]struct{})}
}

func partitionKey(r *kgo.Record) string {
	return fmt.Sprintf("%s/%d", r.Topic, r.Partition)
}

func (g *commitGate) blocked(r *kgo.Record) bool {
	_, ok := g.failed[partitionKey(r)]
	return ok
}

func (g *commitGate) fail(r *kgo.Record) {
	g.failed[partitionKey(r)] = struct{}{}
}

func (g *commitGate) pass(r *kgo.Record) {
	g.done = append(g.done, r)
}

func (g *commitGate) committable() []*kgo.Record {
	return g.done
}

func (d *Dispatcher) handle(ctx context.Context, record *kgo.Record) error {
	switch record.Topic {
	case kafka.TopicOrderPlaced:
		var ev kafka.OrderPlacedEvent
		if err := json.Unmarshal(record.Value, &ev); err != nil {
			return fmt.Errorf("unmarshalling order-placed event: %w", err)
		}
		return d.orderPlaced(ctx, ev)

	case kafka.TopicStatusChanged:
		var ev kafka.StatusChangedEvent
		if err := json.Unmarshal(record.Value, &ev); err != nil {
			return fmt.Errorf("unmarshalling status-changed event: %w", err)
		}
		return d.statusChanged(ctx, ev)

	case kafka.TopicAccountCreated:
		var ev kafka.AccountCreatedEvent
		if err := json.Unmarshal(record.Value, &ev); err != nil {
			return fmt.Errorf("unmarshalling account-created event: %w", err)
		}
		d.mail.SendWelcome(ev.Email, ev.Name)
		return nil

	default:
		slog.Info("unhandled event topic", slog.String("topic", record.Topic))
		return nil
	}
}

func (d *Dispatcher) orderPlaced(ctx context.Context, ev kafka.OrderPlacedEvent) error {
	data, _ := json.Marshal(map[string]string{"order_id": ev.OrderID, "order_number": ev.OrderNumber})
	title := "Đặt hàng thành công"
	msg := fmt.Sprintf("Đơn hàng %s (tổng %dđ) đã được tiếp nhận.", ev.OrderNumber, ev.Total)
	if err := d.n.Insert(ctx, ev.UserID, title, msg, notifications.TypeOrder, data); err != nil {
		return err
	}

	u, err := d.u.GetUserByID(ctx, ev.UserID)
	if err != nil {
		return err
	}
	d.mail.SendOrderConfirmation(u.Email, u.Name, ev.OrderNumber, ev.Total)
	return nil
}

var statusTitles = map[string]string{
	"AWAITING_PAYMENT": "Chờ thanh toán",
	"SHIPPING":         "Đơn hàng đang được giao",
	"DELIVERED":        "Đơn hàng đã giao",
	"COMPLETED":        "Đơn hàng hoàn tất",
	"CANCELLED":        "Đơn hàng đã hủy",
}

func (d *Dispatcher) statusChanged(ctx context.Context, ev kafka.StatusChangedEvent) error {
	title, ok := statusTitles[ev.To]
	if !ok {
		title = "Cập nhật đơn hàng"
	}
	data, _ := json.Marshal(map[string]string{"order_id": ev.OrderID, "order_number": ev.OrderNumber, "status": ev.To})
	msg := fmt.Sprintf("Đơn hàng %s: %s.", ev.OrderNumber, title)
	if ev.Reason != "" {
		msg = fmt.Sprintf("Đơn hàng %s: %s. Lý do: %s", ev.OrderNumber, title, ev.Reason)
	}
	if err := d.n.Insert(ctx, ev.UserID, title, msg, notifications.TypeOrder, data); err != nil {
		return err
	}

	u, err := d.u.GetUserByID(ctx, ev.UserID)
	if err != nil {
		return err
	}
	d.mail.SendStatusUpdate(u.Email, u.Name, ev.OrderNumber, ev.To)
	return nil
}
