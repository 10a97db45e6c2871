package gossip

import (
	"time"

	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/model/message"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// HeartbeatBroadcaster emits a wire 0x06 Heartbeat to every connected peer
// after each confirmation, and periodically as a liveness signal.
type HeartbeatBroadcaster struct {
	tangle *tangle.Tangle
	codec  message.Codec
	sender Sender
	peers  PeerSet
	log    *logger.Logger
}

// NewHeartbeatBroadcaster creates a HeartbeatBroadcaster.
func NewHeartbeatBroadcaster(t *tangle.Tangle, codec message.Codec, sender Sender, peers PeerSet) *HeartbeatBroadcaster {
	return &HeartbeatBroadcaster{
		tangle: t,
		codec:  codec,
		sender: sender,
		peers:  peers,
		log:    logger.NewLogger("Heartbeat"),
	}
}

// Broadcast sends the current heartbeat snapshot to every connected peer.
func (h *HeartbeatBroadcaster) Broadcast() {
	hb := &message.Heartbeat{
		LastSolidMilestoneIndex: h.tangle.LastSolidMilestoneIndex(),
		SnapshotMilestoneIndex:  h.tangle.SnapshotMilestoneIndex(),
		LastMilestoneIndex:      h.tangle.LastMilestoneIndex(),
	}

	data, err := h.codec.Encode(hb)
	if err != nil {
		h.log.Warnf("failed to encode heartbeat: %s", err)
		return
	}

	for _, endpointID := range h.peers.EndpointIDs() {
		if err := h.sender.Send(endpointID, data); err != nil {
			h.log.Debugf("failed to send heartbeat to %s: %s", endpointID, err)
		}
	}
}

// RunPeriodic emits a heartbeat every interval until shutdownSignal fires,
// in addition to whatever ad-hoc Broadcast calls the confirmation hook
// makes.
func (h *HeartbeatBroadcaster) RunPeriodic(interval time.Duration, shutdownSignal <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.Broadcast()
		case <-shutdownSignal:
			return
		}
	}
}
