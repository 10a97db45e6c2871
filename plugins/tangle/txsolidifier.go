package tangle

import (
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

// TransactionSolidifier walks the ancestry of one pending milestone gap,
// requesting whatever is missing and reporting completion back to its
// MilestoneSolidifier. One instance exists per in-flight gap (spec.md
// §4.7), grounded on the teacher's solidQueueCheck traversal shape but
// restructured as incremental per-hash arrivals instead of one blocking
// call, since this module has no milestoneTail *CachedTransaction to block
// on synchronously.
type TransactionSolidifier struct {
	tangle    *tangleModel.Tangle
	index     milestone_index.MilestoneIndex
	requestTx RequestTransaction
	parent    *MilestoneSolidifier
	log       *logger.Logger

	mu      syncutils.Mutex
	tail    hornet.Hash
	pending map[hornet.Hash]struct{} // ancestors requested but not yet solid
	done    bool
}

// NewTransactionSolidifier creates a TransactionSolidifier for the gap at
// index, anchored once the tail's hash is known via NewAncestor.
func NewTransactionSolidifier(t *tangleModel.Tangle, index milestone_index.MilestoneIndex, requestTx RequestTransaction, parent *MilestoneSolidifier) *TransactionSolidifier {
	return &TransactionSolidifier{
		tangle:    t,
		index:     index,
		requestTx: requestTx,
		parent:    parent,
		log:       logger.NewLogger("TransactionSolidifier"),
		pending:   make(map[hornet.Hash]struct{}),
	}
}

// NewAncestor is called whenever a hash relevant to this gap's ancestry
// arrives (first the milestone tail itself, later any requested ancestor).
// It re-attempts the walk from scratch; the tangle's own solid flags make
// repeated walks cheap once most ancestors have landed.
func (ts *TransactionSolidifier) NewAncestor(hash hornet.Hash) {
	ts.mu.Lock()
	if ts.done {
		ts.mu.Unlock()
		return
	}
	if ts.tail == "" {
		ts.tail = hash
	}
	delete(ts.pending, hash)
	ts.mu.Unlock()

	ts.walk()
}

// Retry is invoked by the parent's Trigger to re-request whatever is still
// pending, in case an earlier request was dropped.
func (ts *TransactionSolidifier) Retry() {
	ts.mu.Lock()
	tail := ts.tail
	done := ts.done
	ts.mu.Unlock()
	if done || tail == "" {
		return
	}
	ts.walk()
}

// walk performs the iterative DFS from the gap's tail over unsolid
// ancestors, requesting whatever is missing. When every ancestor is present
// and solid (or a solid-entry-point) it reports completion to the parent
// milestone solidifier.
func (ts *TransactionSolidifier) walk() {
	ts.mu.Lock()
	tail := ts.tail
	if tail == "" || ts.done {
		ts.mu.Unlock()
		return
	}
	ts.mu.Unlock()

	visited := make(map[hornet.Hash]bool)
	stack := []hornet.Hash{tail}
	missing := make(map[hornet.Hash]bool)

	for len(stack) > 0 {
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[hash] {
			continue
		}
		visited[hash] = true

		if ts.tangle.ContainsSolidEntryPoint(hash) {
			continue
		}

		tx, ok := ts.tangle.Get(hash)
		if !ok {
			missing[hash] = true
			continue
		}

		if ts.tangle.IsSolid(hash) {
			continue
		}

		parents := uniqueParentsOf(tx)
		for _, p := range parents {
			if !visited[p] {
				stack = append(stack, p)
			}
		}
	}

	if len(missing) > 0 {
		ts.mu.Lock()
		for h := range missing {
			ts.pending[h] = struct{}{}
		}
		ts.mu.Unlock()
		if ts.requestTx != nil {
			for h := range missing {
				ts.requestTx(h, ts.index)
			}
		}
		return
	}

	ts.mu.Lock()
	if ts.done {
		ts.mu.Unlock()
		return
	}
	ts.done = true
	ts.mu.Unlock()

	ts.log.Infof("gap at milestone %d solidified", ts.index)
	ts.parent.solidifyGap(ts.index)
}

func uniqueParentsOf(tx *tangleModel.Transaction) []hornet.Hash {
	if tx.Trunk == tx.Branch {
		return []hornet.Hash{tx.Trunk}
	}
	return []hornet.Hash{tx.Trunk, tx.Branch}
}
