package gossip

import (
	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/message"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// PeerSet lists connected endpoints the broadcaster fans out to, excluding
// the source of a given transaction.
type PeerSet interface {
	EndpointIDs() []string
}

type broadcastItem struct {
	hash             hornet.Hash
	sourceEndpointID string
}

// Broadcaster fans newly-stored transactions out to every connected peer
// other than the one that sent it (spec.md §4.4c, §4.10).
type Broadcaster struct {
	tangle *tangle.Tangle
	codec  message.Codec
	sender Sender
	peers  PeerSet
	in     chan broadcastItem
	log    *logger.Logger
}

// NewBroadcaster creates a Broadcaster with a queueSize-deep input queue.
func NewBroadcaster(t *tangle.Tangle, codec message.Codec, sender Sender, peers PeerSet, queueSize int) *Broadcaster {
	return &Broadcaster{
		tangle: t,
		codec:  codec,
		sender: sender,
		peers:  peers,
		in:     make(chan broadcastItem, queueSize),
		log:    logger.NewLogger("Broadcaster"),
	}
}

// Broadcast enqueues hash (arrived from sourceEndpointID, empty for
// locally-originated) for fan-out.
func (b *Broadcaster) Broadcast(hash hornet.Hash, sourceEndpointID string) {
	b.in <- broadcastItem{hash: hash, sourceEndpointID: sourceEndpointID}
}

// Run fans out queued broadcasts until shutdownSignal fires.
func (b *Broadcaster) Run(shutdownSignal <-chan struct{}) {
	for {
		select {
		case item, ok := <-b.in:
			if !ok {
				return
			}
			b.send(item)
		case <-shutdownSignal:
			return
		}
	}
}

func (b *Broadcaster) send(item broadcastItem) {
	tx, ok := b.tangle.Get(item.hash)
	if !ok {
		return
	}

	data, err := b.codec.Encode(&message.TransactionBroadcast{Data: tx.SignatureOrMessage})
	if err != nil {
		b.log.Warnf("failed to encode transaction %s for broadcast: %s", item.hash, err)
		return
	}

	for _, endpointID := range b.peers.EndpointIDs() {
		if endpointID == item.sourceEndpointID {
			continue
		}
		if err := b.sender.Send(endpointID, data); err != nil {
			b.log.Debugf("failed to broadcast %s to %s: %s", item.hash, endpointID, err)
			continue
		}
		metrics.SharedServerMetrics.SentTransactions.Inc()
	}
}
