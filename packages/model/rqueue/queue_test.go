package rqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

func TestTransactionQueueDedupesEnqueue(t *testing.T) {
	q := NewTransactionQueue(DefaultBackoffPolicy)
	hash := hornet.Hash("A")

	assert.True(t, q.Enqueue(hash, 5))
	assert.False(t, q.Enqueue(hash, 5), "a second enqueue of an outstanding hash must be a no-op")
	assert.True(t, q.IsRequested(hash))
}

func TestTransactionQueueReceivedClearsOutstanding(t *testing.T) {
	q := NewTransactionQueue(DefaultBackoffPolicy)
	hash := hornet.Hash("A")
	q.Enqueue(hash, 5)

	assert.True(t, q.Received(hash))
	assert.False(t, q.IsRequested(hash))
	assert.False(t, q.Received(hash), "receiving an already-cleared hash reports false")
}

func TestTransactionQueueServesLowestIndexFirst(t *testing.T) {
	q := NewTransactionQueue(DefaultBackoffPolicy)
	q.Enqueue("late", 10)
	q.Enqueue("early", 3)

	first := <-q.Incoming()
	req := first.(TransactionRequest)
	assert.Equal(t, hornet.Hash("early"), req.Hash)
}

func TestMilestoneQueueDedupesEnqueue(t *testing.T) {
	q := NewMilestoneQueue(DefaultBackoffPolicy)
	assert.True(t, q.Enqueue(7))
	assert.False(t, q.Enqueue(7))
	assert.True(t, q.IsRequested(7))

	assert.True(t, q.Received(7))
	assert.False(t, q.IsRequested(7))
}

func TestEvictStaleRemovesExpiredRequests(t *testing.T) {
	policy := BackoffPolicy{BaseBackoff: time.Millisecond, MaxBackoff: time.Millisecond, RetryCap: 10 * time.Millisecond}
	q := NewTransactionQueue(policy)
	q.Enqueue("A", 1)

	time.Sleep(20 * time.Millisecond)

	evicted := q.EvictStale()
	require.Len(t, evicted, 1)
	assert.Equal(t, hornet.Hash("A"), evicted[0])
	assert.False(t, q.IsRequested("A"))
}

func TestBackoffPolicyNextDelayCapsAtMax(t *testing.T) {
	p := BackoffPolicy{BaseBackoff: time.Second, MaxBackoff: 4 * time.Second, RetryCap: time.Minute}
	assert.Equal(t, time.Second, p.NextDelay(0))
	assert.Equal(t, 2*time.Second, p.NextDelay(1))
	assert.Equal(t, 4*time.Second, p.NextDelay(2))
	assert.Equal(t, 4*time.Second, p.NextDelay(10), "delay must not exceed MaxBackoff")
}
