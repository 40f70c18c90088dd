package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

const ConsumerGroup = "mephuongthitheo-dispatcher"

type Conf struct {
	client *kgo.Client
}

// NewConf connects a producer/consumer client subscribed to the order topics.
func NewConf(brokers []string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(ConsumerGroup),
		kgo.ConsumeTopics(TopicOrderPlaced, TopicStatusChanged, TopicAccountCreated),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}
	return &Conf{client: client}, nil
}

// ProduceMessage publishes one record synchronously so the outbox relay only
// marks rows done after the broker acknowledged them.
func (c *Conf) ProduceMessage(topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(context.Background(), record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce to %s: %w", topic, err)
	}
	return nil
}

// PollFetches exposes the consumer side for the dispatcher.
func (c *Conf) PollFetches(ctx context.Context) kgo.Fetches {
	return c.client.PollFetches(ctx)
}

// CommitRecords commits consumed offsets after the side effects succeeded.
func (c *Conf) CommitRecords(ctx context.Context, records ...*kgo.Record) error {
	if err := c.client.CommitRecords(ctx, records...); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

func (c *Conf) Close() {
	c.client.Close()
}
