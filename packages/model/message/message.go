// Package message defines the tagged wire messages exchanged with peers
// (spec.md §6). Framing and transport are external collaborators; this
// package only models the message shapes and a reference in-memory codec
// used by tests.
package message

import (
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

// Type is the one-byte wire tag.
type Type byte

const (
	TypeHandshake            Type = 0x01
	_reservedType            Type = 0x02
	TypeMilestoneRequest     Type = 0x03
	TypeTransactionBroadcast Type = 0x04
	TypeTransactionRequest   Type = 0x05
	TypeHeartbeat            Type = 0x06
)

// Handshake is wire message 0x01.
type Handshake struct {
	Port                   uint16
	TimestampMs            uint64
	CoordinatorPublicKey   [49]byte
	MinimumWeightMagnitude uint8
	SupportedVersions      []byte // variable bitmap, see bits-and-blooms/bitset wiring
}

// MilestoneRequest is wire message 0x03.
type MilestoneRequest struct {
	Index milestone_index.MilestoneIndex
}

// TransactionBroadcast is wire message 0x04: the (possibly truncated)
// 1604-byte transaction payload.
type TransactionBroadcast struct {
	Data []byte
}

// TransactionRequest is wire message 0x05.
type TransactionRequest struct {
	Hash [49]byte // 5-trits-per-byte encoding of 243 trits
}

// Heartbeat is wire message 0x06.
type Heartbeat struct {
	LastSolidMilestoneIndex milestone_index.MilestoneIndex
	SnapshotMilestoneIndex  milestone_index.MilestoneIndex
	LastMilestoneIndex      milestone_index.MilestoneIndex
}
