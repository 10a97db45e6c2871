// Package milestone models a coordinator-signed checkpoint and the
// signature verification that turns a candidate bundle into a validated
// Milestone.
package milestone

import (
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

// Milestone is a validated coordinator checkpoint: (index, tail hash,
// signature). Indices are monotone and every index the node holds carries a
// validated signature over its tail.
type Milestone struct {
	Index     milestone_index.MilestoneIndex
	TailHash  hornet.Hash
	Signature []byte
	Timestamp uint64
}
