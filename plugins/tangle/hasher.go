// Package tangle wires the hasher, processor, milestone solidifier,
// transaction solidifiers and the white-flag confirmation engine into the
// running node.
//
// Grounded on the workerpool.New(...) / workerpool.WorkerCount / QueueSize
// shape used by the Metz-2-hornet processor (pkg/protocol/processor), and on
// the teacher's (SimonHausdorf-hornet) solidifier worker pool declarations.
package tangle

import (
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/workerpool"
	"github.com/iotaledger/iota.go/trinary"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone"
)

const (
	hasherQueueSize = 10000
)

// RawPayload is the not-yet-hashed transaction bytes received from a peer,
// tagged with the endpoint it arrived on so the processor can exclude that
// peer from the subsequent broadcast.
type RawPayload struct {
	EndpointID string
	Data       []byte
}

// HashedTransaction is a RawPayload after the sponge has computed its hash.
type HashedTransaction struct {
	RawPayload
	Hash hornet.Hash
}

// Hasher computes transaction hashes in parallel over incoming raw payloads.
// Hashing is stateless across payloads, so it is the one worker in this
// package that is safe to run with more than one goroutine (spec.md §4.3).
type Hasher struct {
	wp     *workerpool.WorkerPool
	sponge milestone.SpongeType
	out    chan *HashedTransaction
	log    *logger.Logger
}

// NewHasher creates a Hasher using workerCount goroutines. queueSize bounds
// both the pool's input queue and the output channel; a value <= 0 selects
// hasherQueueSize.
func NewHasher(sponge milestone.SpongeType, workerCount int, queueSize int) *Hasher {
	if queueSize <= 0 {
		queueSize = hasherQueueSize
	}
	h := &Hasher{
		sponge: sponge,
		out:    make(chan *HashedTransaction, queueSize),
		log:    logger.NewLogger("Hasher"),
	}
	h.wp = workerpool.New(func(task workerpool.Task) {
		payload := task.Param(0).(*RawPayload)
		h.process(payload)
		task.Return(nil)
	}, workerpool.WorkerCount(workerCount), workerpool.QueueSize(queueSize))
	return h
}

func (h *Hasher) process(payload *RawPayload) {
	hash, err := computeHash(h.sponge, payload.Data)
	if err != nil {
		h.log.Warnf("failed to hash payload from %s: %s", payload.EndpointID, err)
		metrics.SharedServerMetrics.InvalidTransactions.Inc()
		return
	}
	h.out <- &HashedTransaction{RawPayload: *payload, Hash: hash}
}

// Submit enqueues payload for hashing. Back-pressure is applied by the
// workerpool's bounded queue.
func (h *Hasher) Submit(payload *RawPayload) {
	h.wp.Submit(payload)
}

// Out returns the channel the processor consumes hashed transactions from.
func (h *Hasher) Out() <-chan *HashedTransaction {
	return h.out
}

// Run starts the hasher pool and blocks until shutdownSignal fires.
func (h *Hasher) Run(shutdownSignal <-chan struct{}) {
	h.wp.Start()
	<-shutdownSignal
	h.wp.StopAndWait()
	close(h.out)
}

// computeHash drives the configured sponge over the transaction payload.
// The sponge's trit permutation itself is the pure cryptographic primitive
// spec.md §1 keeps external; this only absorbs/squeezes it.
func computeHash(spongeType milestone.SpongeType, data []byte) (hornet.Hash, error) {
	sponge, err := milestone.NewSponge(spongeType)
	if err != nil {
		return "", err
	}
	trytes, err := trinary.BytesToTrytes(data)
	if err != nil {
		return "", err
	}
	trits, err := trinary.TrytesToTrits(trytes)
	if err != nil {
		return "", err
	}
	if err := sponge.Absorb(trits); err != nil {
		return "", err
	}
	hashTrits, err := sponge.Squeeze(243)
	if err != nil {
		return "", err
	}
	hashTrytes, err := trinary.TritsToTrytes(hashTrits)
	if err != nil {
		return "", err
	}
	return hornet.Hash(hashTrytes), nil
}
