// Package gossip answers peer requests and fans outgoing transactions,
// milestone requests and heartbeats out to connected endpoints. Wire
// framing and the actual socket are external collaborators (spec.md §1);
// this package only holds the single-consumer worker shape and the
// message-construction logic around packages/model/message.
package gossip

import (
	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/message"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// Sender is implemented by the peer transport: send the encoded payload to
// endpointID, or drop it if the endpoint has since disconnected.
type Sender interface {
	Send(endpointID string, data []byte) error
}

// transactionRequestItem is what arrives on the transaction responder's
// input queue.
type transactionRequestItem struct {
	endpointID string
	hash       hornet.Hash
}

// milestoneRequestItem is what arrives on the milestone responder's input
// queue.
type milestoneRequestItem struct {
	endpointID string
	index      milestone_index.MilestoneIndex
}

// TransactionResponder answers transaction-by-hash requests from peers. It
// is the single consumer of its input queue, so responses to any one peer
// preserve arrival order (spec.md §4.5).
type TransactionResponder struct {
	tangle *tangle.Tangle
	codec  message.Codec
	sender Sender
	in     chan transactionRequestItem
	log    *logger.Logger
}

// NewTransactionResponder creates a TransactionResponder with a
// queueSize-deep input queue.
func NewTransactionResponder(t *tangle.Tangle, codec message.Codec, sender Sender, queueSize int) *TransactionResponder {
	return &TransactionResponder{
		tangle: t,
		codec:  codec,
		sender: sender,
		in:     make(chan transactionRequestItem, queueSize),
		log:    logger.NewLogger("TransactionResponder"),
	}
}

// Request enqueues a transaction request received from endpointID.
func (r *TransactionResponder) Request(endpointID string, hash hornet.Hash) {
	r.in <- transactionRequestItem{endpointID: endpointID, hash: hash}
}

// Run serves queued requests until shutdownSignal fires.
func (r *TransactionResponder) Run(shutdownSignal <-chan struct{}) {
	for {
		select {
		case req, ok := <-r.in:
			if !ok {
				return
			}
			r.respond(req)
		case <-shutdownSignal:
			return
		}
	}
}

func (r *TransactionResponder) respond(req transactionRequestItem) {
	tx, ok := r.tangle.Get(req.hash)
	if !ok {
		return
	}

	data, err := r.codec.Encode(&message.TransactionBroadcast{Data: tx.SignatureOrMessage})
	if err != nil {
		r.log.Warnf("failed to encode transaction %s for %s: %s", req.hash, req.endpointID, err)
		return
	}

	if err := r.sender.Send(req.endpointID, data); err != nil {
		r.log.Debugf("failed to send transaction %s to %s: %s", req.hash, req.endpointID, err)
		return
	}
	metrics.SharedServerMetrics.SentTransactions.Inc()
}

// MilestoneResponder answers milestone-by-index requests from peers.
type MilestoneResponder struct {
	tangle *tangle.Tangle
	codec  message.Codec
	sender Sender
	in     chan milestoneRequestItem
	log    *logger.Logger
}

// NewMilestoneResponder creates a MilestoneResponder with a queueSize-deep
// input queue.
func NewMilestoneResponder(t *tangle.Tangle, codec message.Codec, sender Sender, queueSize int) *MilestoneResponder {
	return &MilestoneResponder{
		tangle: t,
		codec:  codec,
		sender: sender,
		in:     make(chan milestoneRequestItem, queueSize),
		log:    logger.NewLogger("MilestoneResponder"),
	}
}

// Request enqueues a milestone request received from endpointID.
func (r *MilestoneResponder) Request(endpointID string, index milestone_index.MilestoneIndex) {
	r.in <- milestoneRequestItem{endpointID: endpointID, index: index}
}

// Run serves queued requests until shutdownSignal fires.
func (r *MilestoneResponder) Run(shutdownSignal <-chan struct{}) {
	for {
		select {
		case req, ok := <-r.in:
			if !ok {
				return
			}
			r.respond(req)
		case <-shutdownSignal:
			return
		}
	}
}

func (r *MilestoneResponder) respond(req milestoneRequestItem) {
	hash, ok := r.tangle.MilestoneHash(req.index)
	if !ok {
		return
	}
	tx, ok := r.tangle.Get(hash)
	if !ok {
		return
	}

	data, err := r.codec.Encode(&message.TransactionBroadcast{Data: tx.SignatureOrMessage})
	if err != nil {
		r.log.Warnf("failed to encode milestone %d for %s: %s", req.index, req.endpointID, err)
		return
	}

	if err := r.sender.Send(req.endpointID, data); err != nil {
		r.log.Debugf("failed to send milestone %d to %s: %s", req.index, req.endpointID, err)
	}
}
