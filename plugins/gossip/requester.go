package gossip

import (
	"time"

	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/message"
	"github.com/iotaledger/hornet-core/packages/model/rqueue"
)

// Broadcast is the subset of PeerSet+Sender the requester needs to fan a
// request out to every connected peer (real implementations typically pick
// one peer at random instead; broadcasting to all is the simplest correct
// policy and what the teacher's gossip.RequestMulti call site implies for a
// small peer count).
type Broadcast interface {
	PeerSet
	Sender
}

// Requester drains the transaction and milestone request queues and emits
// wire requests to connected peers (spec.md §4.10).
type Requester struct {
	txQueue *rqueue.TransactionQueue
	msQueue *rqueue.MilestoneQueue
	codec   message.Codec
	out     Broadcast
	log     *logger.Logger
}

// NewRequester creates a Requester over the given queues.
func NewRequester(txQueue *rqueue.TransactionQueue, msQueue *rqueue.MilestoneQueue, codec message.Codec, out Broadcast) *Requester {
	return &Requester{
		txQueue: txQueue,
		msQueue: msQueue,
		codec:   codec,
		out:     out,
		log:     logger.NewLogger("Requester"),
	}
}

// Run drains both request queues' Incoming channels until shutdownSignal
// fires, emitting one wire request per dequeued entry.
func (r *Requester) Run(shutdownSignal <-chan struct{}) {
	txIncoming := r.txQueue.Incoming()
	msIncoming := r.msQueue.Incoming()

	for {
		select {
		case item, ok := <-txIncoming:
			if !ok {
				txIncoming = nil
				continue
			}
			r.emitTransactionRequest(item.(rqueue.TransactionRequest))
		case item, ok := <-msIncoming:
			if !ok {
				msIncoming = nil
				continue
			}
			r.emitMilestoneRequest(item.(rqueue.MilestoneRequest))
		case <-shutdownSignal:
			r.txQueue.Close()
			r.msQueue.Close()
			return
		}
	}
}

func (r *Requester) emitTransactionRequest(req rqueue.TransactionRequest) {
	var hashBytes [49]byte
	copy(hashBytes[:], req.Hash)

	data, err := r.codec.Encode(&message.TransactionRequest{Hash: hashBytes})
	if err != nil {
		r.log.Warnf("failed to encode transaction request for %s: %s", req.Hash, err)
		return
	}
	r.fanOut(data)
}

func (r *Requester) emitMilestoneRequest(req rqueue.MilestoneRequest) {
	data, err := r.codec.Encode(&message.MilestoneRequest{Index: req.Index})
	if err != nil {
		r.log.Warnf("failed to encode milestone request for %d: %s", req.Index, err)
		return
	}
	r.fanOut(data)
}

// RunEviction periodically evicts requested entries whose first_requested_at
// exceeds the retry cap (spec.md §5), incrementing StaleTransactions for
// visibility, until shutdownSignal fires.
func (r *Requester) RunEviction(interval time.Duration, shutdownSignal <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			evicted := r.txQueue.EvictStale()
			for range evicted {
				metrics.SharedServerMetrics.StaleTransactions.Inc()
			}
		case <-shutdownSignal:
			return
		}
	}
}

func (r *Requester) fanOut(data []byte) {
	for _, endpointID := range r.out.EndpointIDs() {
		if err := r.out.Send(endpointID, data); err != nil {
			metrics.SharedServerMetrics.InvalidRequests.Inc()
			r.log.Debugf("failed to send request to %s: %s", endpointID, err)
		}
	}
}
