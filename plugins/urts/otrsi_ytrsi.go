// Package urts maintains the OTRSI/YTRSI tip-selection metadata and scores
// tips for the Non-Lazy/Semi-Lazy/Lazy tip-selection algorithm (spec.md
// §4.9), grounded on the teacher's iterative, visited-set BFS shape applied
// here to root-snapshot-index propagation instead of solidity.
package urts

import (
	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// Propagator maintains the OTRSI/YTRSI invariants over a Tangle.
type Propagator struct {
	tangle *tangle.Tangle
	log    *logger.Logger
}

// NewPropagator creates a Propagator over t.
func NewPropagator(t *tangle.Tangle) *Propagator {
	return &Propagator{tangle: t, log: logger.NewLogger("TipMetadata")}
}

// OnNewSolidTransaction implements trigger (i): propagate OTRSI/YTRSI
// through the solid future cone of a transaction that just became solid.
// Stops descending a branch once the recomputed values equal the stored
// ones, per spec.md §4.9.
func (p *Propagator) OnNewSolidTransaction(hash hornet.Hash) {
	p.recomputeAndPropagate(hash)
}

func (p *Propagator) recomputeAndPropagate(start hornet.Hash) {
	visited := make(map[hornet.Hash]bool)
	queue := []hornet.Hash{start}

	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]

		if visited[hash] {
			continue
		}
		visited[hash] = true

		if !p.tangle.IsSolid(hash) {
			continue
		}

		otrsi, ytrsi, ok := p.computeFromParents(hash)
		if !ok {
			continue
		}

		changed := false
		if p.tangle.ContainsSolidEntryPoint(hash) {
			// solid entry points carry their own fixed index, set once at
			// snapshot bootstrap; they are never recomputed here.
			continue
		}
		p.tangle.UpdateMetadata(hash, func(meta *tangle.TransactionMetadata) {
			changed = meta.SetOTRSIYTRSI(otrsi, ytrsi)
		})

		if !changed {
			continue
		}

		for _, child := range p.tangle.Children(hash) {
			queue = append(queue, child)
		}
	}
}

// computeFromParents returns OTRSI = min(parents' OTRSI), YTRSI =
// max(parents' YTRSI). ok is false if a parent has no OTRSI/YTRSI yet
// (e.g. still unsolid), in which case the caller should skip this node
// (spec.md §4.9 "skip non-solid nodes").
func (p *Propagator) computeFromParents(hash hornet.Hash) (otrsi, ytrsi milestone_index.MilestoneIndex, ok bool) {
	tx, exists := p.tangle.Get(hash)
	if !exists {
		return 0, 0, false
	}

	parents := parentsOf(tx)
	first := true
	for _, parent := range parents {
		pOtrsi, pYtrsi, exists := p.indexOf(parent)
		if !exists {
			return 0, 0, false
		}
		if first {
			otrsi, ytrsi = pOtrsi, pYtrsi
			first = false
			continue
		}
		if pOtrsi < otrsi {
			otrsi = pOtrsi
		}
		if pYtrsi > ytrsi {
			ytrsi = pYtrsi
		}
	}
	return otrsi, ytrsi, true
}

// indexOf returns the effective OTRSI/YTRSI for hash: the snapshot index for
// a solid entry point, or the stored metadata values otherwise.
func (p *Propagator) indexOf(hash hornet.Hash) (otrsi, ytrsi milestone_index.MilestoneIndex, ok bool) {
	if p.tangle.ContainsSolidEntryPoint(hash) {
		index := p.tangle.SnapshotMilestoneIndex()
		return index, index, true
	}
	meta, exists := p.tangle.GetMetadata(hash)
	if !exists {
		return 0, 0, false
	}
	o, hasO := meta.OTRSI()
	y, hasY := meta.YTRSI()
	if !hasO || !hasY {
		return 0, 0, false
	}
	return o, y, true
}

// OnNewSolidMilestone implements trigger (ii): for every transaction in the
// milestone's past cone not confirmed by an earlier milestone, set
// OTRSI=YTRSI=I, then re-run trigger (i) from each of its children (spec.md
// §4.9). The confirmed flag itself is set by the Confirmer, which runs first;
// tails it confirmed at I are stamped here like any other cone member.
func (p *Propagator) OnNewSolidMilestone(index milestone_index.MilestoneIndex, milestoneTail hornet.Hash) {
	visited := make(map[hornet.Hash]bool)
	stack := []hornet.Hash{milestoneTail}
	var boundary []hornet.Hash

	for len(stack) > 0 {
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[hash] {
			continue
		}
		visited[hash] = true

		if p.tangle.ContainsSolidEntryPoint(hash) {
			continue
		}

		meta, exists := p.tangle.GetMetadata(hash)
		if !exists {
			continue
		}
		if msIndex, confirmed := meta.MilestoneIndex(); confirmed && msIndex < index {
			// confirmed by an earlier milestone: stop descending, per spec.md
			// §4.9 "stopping at already-confirmed nodes".
			continue
		}

		meta.SetOTRSIYTRSI(index, index)
		boundary = append(boundary, hash)

		tx, exists := p.tangle.Get(hash)
		if !exists {
			continue
		}
		for _, parent := range parentsOf(tx) {
			stack = append(stack, parent)
		}
	}

	for _, hash := range boundary {
		for _, child := range p.tangle.Children(hash) {
			p.recomputeAndPropagate(child)
		}
	}
}

func parentsOf(tx *tangle.Transaction) []hornet.Hash {
	if tx.Trunk == tx.Branch {
		return []hornet.Hash{tx.Trunk}
	}
	return []hornet.Hash{tx.Trunk, tx.Branch}
}
