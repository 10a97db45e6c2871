// Package rqueue implements the two priority request queues (missing
// transactions, missing milestones) and their deduplicated "requested" maps
// with retry backoff.
//
// Grounded on spec.md §4.6 and on the teacher's call site
// (gossip.RequestMulti(txHashes, milestoneIndex) in
// SimonHausdorf-hornet/plugins/tangle/solidifier.go), which is what enqueues
// into this package's TransactionQueue.
package rqueue

import (
	"container/heap"
	"sync"
	"time"

	"github.com/iotaledger/hornet-core/packages/concurrent"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

// entry is a single request queued by target milestone index, smaller
// indices are served first.
type entry struct {
	payload  interface{}
	priority milestone_index.MilestoneIndex
	seq      uint64 // FIFO tiebreaker for equal priorities
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *entryHeap) Push(x interface{}) { *h = append(*h, x.(*entry)) }
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// WaitPriorityQueue is a priority queue ordered by target milestone index
// that blocks consumers while empty and wakes them on insertion.
type WaitPriorityQueue struct {
	mu   sync.Mutex
	cond *sync.Cond
	h    entryHeap
	seq  uint64
	closed bool
}

// NewWaitPriorityQueue creates an empty queue.
func NewWaitPriorityQueue() *WaitPriorityQueue {
	q := &WaitPriorityQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues payload with the given priority (smaller = served first).
func (q *WaitPriorityQueue) Push(payload interface{}, priority milestone_index.MilestoneIndex) {
	q.mu.Lock()
	q.seq++
	heap.Push(&q.h, &entry{payload: payload, priority: priority, seq: q.seq})
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an entry is available or the queue is closed, in which
// case it returns (nil, false).
func (q *WaitPriorityQueue) Pop() (interface{}, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.h) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.h) == 0 {
		return nil, false
	}
	e := heap.Pop(&q.h).(*entry)
	return e.payload, true
}

// Len returns the number of currently queued entries.
func (q *WaitPriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.h)
}

// Close unblocks every pending and future Pop call.
func (q *WaitPriorityQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Incoming returns a channel that is continuously fed by a background
// goroutine draining Pop, i.e. the "lazy infinite sequence that blocks while
// empty and wakes on insertion" spec.md §4.6 describes. The channel is
// closed once the queue itself is closed.
func (q *WaitPriorityQueue) Incoming() <-chan interface{} {
	out := make(chan interface{})
	go func() {
		defer close(out)
		for {
			v, ok := q.Pop()
			if !ok {
				return
			}
			out <- v
		}
	}()
	return out
}

// TransactionRequest is an entry in the transaction request queue.
type TransactionRequest struct {
	Hash           hornet.Hash
	MilestoneIndex milestone_index.MilestoneIndex
}

// MilestoneRequest is an entry in the milestone request queue.
type MilestoneRequest struct {
	Index milestone_index.MilestoneIndex
}

// requestedEntry tracks when a hash/index was first requested, for backoff
// and eviction.
type requestedEntry struct {
	mu               sync.Mutex
	targetIndex      milestone_index.MilestoneIndex
	firstRequestedAt time.Time
	attempts         int
}

// TransactionQueue is the deduplicated, priority-ordered queue of missing
// transaction hashes.
type TransactionQueue struct {
	queue     *WaitPriorityQueue
	requested *concurrent.ShardedMap // hash -> *requestedEntry
	backoff   BackoffPolicy
}

// NewTransactionQueue creates an empty TransactionQueue using policy for
// retry backoff (DefaultBackoffPolicy if the zero value is passed).
func NewTransactionQueue(policy BackoffPolicy) *TransactionQueue {
	if policy == (BackoffPolicy{}) {
		policy = DefaultBackoffPolicy
	}
	return &TransactionQueue{
		queue:     NewWaitPriorityQueue(),
		requested: concurrent.NewShardedMap(),
		backoff:   policy,
	}
}

// Enqueue requests hash for targetIndex unless it is already outstanding.
// Returns false if the hash was already in the requested map (a no-op).
func (q *TransactionQueue) Enqueue(hash hornet.Hash, targetIndex milestone_index.MilestoneIndex) bool {
	_, loaded := q.requested.LoadOrStore(string(hash), &requestedEntry{
		targetIndex:      targetIndex,
		firstRequestedAt: time.Now(),
	})
	if loaded {
		return false
	}
	q.queue.Push(TransactionRequest{Hash: hash, MilestoneIndex: targetIndex}, targetIndex)
	return true
}

// Received marks hash as arrived, removing it from the requested map.
// Returns true if it had been outstanding.
func (q *TransactionQueue) Received(hash hornet.Hash) bool {
	_, ok := q.requested.Load(string(hash))
	if !ok {
		return false
	}
	q.requested.Delete(string(hash))
	return true
}

// IsRequested reports whether hash currently has an outstanding request.
func (q *TransactionQueue) IsRequested(hash hornet.Hash) bool {
	_, ok := q.requested.Load(string(hash))
	return ok
}

// Incoming exposes the underlying priority queue's consumer stream.
func (q *TransactionQueue) Incoming() <-chan interface{} {
	return q.queue.Incoming()
}

// Close shuts down the underlying queue.
func (q *TransactionQueue) Close() { q.queue.Close() }

// EvictStale removes and returns every requested hash whose first request
// exceeded the retry cap, so the caller can stop retrying it (spec.md §5:
// "Request entries whose first_requested_at exceeds a retry cap are
// evicted").
func (q *TransactionQueue) EvictStale() []hornet.Hash {
	now := time.Now()
	var evicted []hornet.Hash
	q.requested.Range(func(key string, value interface{}) bool {
		re := value.(*requestedEntry)
		re.mu.Lock()
		stale := q.backoff.ShouldEvict(re.firstRequestedAt, now)
		re.mu.Unlock()
		if stale {
			evicted = append(evicted, hornet.Hash(key))
		}
		return true
	})
	for _, h := range evicted {
		q.requested.Delete(string(h))
	}
	return evicted
}

// MilestoneQueue is the deduplicated, priority-ordered queue of missing
// milestone indices.
type MilestoneQueue struct {
	queue     *WaitPriorityQueue
	requested *concurrent.ShardedMap // index string -> time.Time
	backoff   BackoffPolicy
}

// NewMilestoneQueue creates an empty MilestoneQueue.
func NewMilestoneQueue(policy BackoffPolicy) *MilestoneQueue {
	if policy == (BackoffPolicy{}) {
		policy = DefaultBackoffPolicy
	}
	return &MilestoneQueue{
		queue:     NewWaitPriorityQueue(),
		requested: concurrent.NewShardedMap(),
		backoff:   policy,
	}
}

// Enqueue requests the milestone at index unless already outstanding.
func (q *MilestoneQueue) Enqueue(index milestone_index.MilestoneIndex) bool {
	_, loaded := q.requested.LoadOrStore(index.String(), time.Now())
	if loaded {
		return false
	}
	q.queue.Push(MilestoneRequest{Index: index}, index)
	return true
}

// Received marks index as arrived.
func (q *MilestoneQueue) Received(index milestone_index.MilestoneIndex) bool {
	_, ok := q.requested.Load(index.String())
	if !ok {
		return false
	}
	q.requested.Delete(index.String())
	return true
}

// IsRequested reports whether index currently has an outstanding request.
func (q *MilestoneQueue) IsRequested(index milestone_index.MilestoneIndex) bool {
	_, ok := q.requested.Load(index.String())
	return ok
}

// Incoming exposes the underlying priority queue's consumer stream.
func (q *MilestoneQueue) Incoming() <-chan interface{} {
	return q.queue.Incoming()
}

// Close shuts down the underlying queue.
func (q *MilestoneQueue) Close() { q.queue.Close() }
