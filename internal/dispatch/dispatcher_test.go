package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"
)

func rec(topic string, partition int32, offset int64) *kgo.Record {
	return &kgo.Record{Topic: topic, Partition: partition, Offset: offset}
}

func TestCommitGateHoldsPartitionAfterFailure(t *testing.T) {
	g := newCommitGate()

	a0 := rec("orders.order-placed", 0, 10)
	a1 := rec("orders.order-placed", 0, 11)
	a2 := rec("orders.order-placed", 0, 12)
	b0 := rec("orders.order-placed", 1, 7)

	assert.False(t, g.blocked(a0))
	g.pass(a0)

	assert.False(t, g.blocked(a1))
	g.fail(a1)

	// a2 succeeds on its own, but committing it would also commit a1.
	assert.True(t, g.blocked(a2))

	// Other partitions keep flowing.
	assert.False(t, g.blocked(b0))
	g.pass(b0)

	assert.Equal(t, []*kgo.Record{a0, b0}, g.committable())
}

func TestCommitGateTracksPartitionsPerTopic(t *testing.T) {
	g := newCommitGate()

	g.fail(rec("orders.status-changed", 0, 3))

	assert.True(t, g.blocked(rec("orders.status-changed", 0, 4)))
	assert.False(t, g.blocked(rec("orders.order-placed", 0, 4)))
	assert.False(t, g.blocked(rec("orders.status-changed", 1, 4)))
}

func TestCommitGateEmptyBatch(t *testing.T) {
	g := newCommitGate()
	assert.Empty(t, g.committable())
}
