package tangle

import (
	"time"

	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/logger"
	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/bundle"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/ledger"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

// ErrNotATail is returned by Confirm when a visited hash is not the tail of
// its bundle (spec.md §4.8 step 2).
var ErrNotATail = errors.New("visited hash is not a bundle tail")

// ErrMissingBundle is the confirmation engine's own sentinel for a bundle or
// transaction it cannot load (spec.md §4.8 step 3); transient during live
// operation, see spec.md §7. It is a separate value from
// bundle.ErrMissingBundle, whose text only appears in the wrapped message.
var ErrMissingBundle = errors.New("bundle could not be reconstructed for confirmation")

// ErrInvalidBundle is returned when a visited bundle fails semantic
// validation (spec.md §4.8 step 4).
var ErrInvalidBundle = errors.New("bundle failed semantic validation")

func confirmedMilestoneCaller(handler interface{}, params ...interface{}) {
	handler.(func(result *ConfirmationResult))(params[0].(*ConfirmationResult))
}

// ConfirmationEvents are the events fired by the Confirmer.
type ConfirmationEvents struct {
	MilestoneConfirmed *events.Event
}

// ConfirmationResult is the outcome of a successful Confirm call.
type ConfirmationResult struct {
	Index         milestone_index.MilestoneIndex
	TailsIncluded []hornet.Hash
	Conflicting   []hornet.Hash
}

// Confirmer runs the white-flag confirmation walk over a tangle and applies
// its result to a ledger.State. Grounded on bee-ledger/src/whiteflag's
// two-pass (collect scratch diff, then commit) shape; the iterative,
// explicitly-visited-set DFS mirrors the teacher's solidQueueCheck
// traversal style applied to confirmation instead of solidity.
type Confirmer struct {
	Events *ConfirmationEvents

	tangle *tangleModel.Tangle
	ledger *ledger.State
	log    *logger.Logger
}

// NewConfirmer creates a Confirmer over t and l.
func NewConfirmer(t *tangleModel.Tangle, l *ledger.State) *Confirmer {
	return &Confirmer{
		Events: &ConfirmationEvents{
			MilestoneConfirmed: events.NewEvent(confirmedMilestoneCaller),
		},
		tangle: t,
		ledger: l,
		log:    logger.NewLogger("Confirmer"),
	}
}

// visitState is the per-tail outcome recorded during the walk, applied to
// tangle metadata only after the whole walk succeeds.
type visitState struct {
	hash        hornet.Hash
	conflicting bool
}

// Confirm runs the white-flag walk from milestoneTail for milestone index.
// Any returned error leaves both the ledger and every tail's metadata
// untouched: the engine works on a scratch diff and a scratch visit list
// until the walk completes, only then committing (spec.md §4.8 "Failure
// semantics").
func (c *Confirmer) Confirm(index milestone_index.MilestoneIndex, milestoneTail hornet.Hash, milestoneTimestamp uint64) (*ConfirmationResult, error) {
	scratch := make(map[hornet.Hash]int64)
	get := func(addr hornet.Hash) int64 {
		return c.ledger.GetOrZero(addr) + scratch[addr]
	}

	visited := make(map[hornet.Hash]bool)
	var order []visitState

	type frame struct {
		hash    hornet.Hash
		visited bool
	}
	stack := []frame{{hash: milestoneTail}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[top.hash] {
			continue
		}

		if c.tangle.ContainsSolidEntryPoint(top.hash) {
			visited[top.hash] = true
			continue
		}

		tx, ok := c.tangle.Get(top.hash)
		if !ok {
			return nil, errors.Wrapf(ErrMissingBundle, "transaction %s not found", top.hash)
		}
		if !tx.IsTail() {
			return nil, errors.Wrapf(ErrNotATail, "transaction %s is not a tail", top.hash)
		}

		if meta, ok := c.tangle.GetMetadata(top.hash); ok && meta.IsConfirmed() {
			visited[top.hash] = true
			continue
		}

		b, err := bundle.Reconstruct(c.tangle, top.hash)
		if err != nil {
			return nil, errors.Wrapf(ErrMissingBundle, "%s: %s", top.hash, err)
		}

		// branch, then trunk, deepest-first (spec.md §4.8 explicit walk
		// order): trunk is pushed first so branch lands on top of the stack
		// and is popped (visited) before trunk.
		parents := uniqueParents(tx.Trunk, tx.Branch)
		unvisitedParent := false
		for _, p := range parents {
			if !visited[p] {
				unvisitedParent = true
			}
		}
		if unvisitedParent && !top.visited {
			stack = append(stack, frame{hash: top.hash, visited: true})
			for _, p := range parents {
				if !visited[p] {
					stack = append(stack, frame{hash: p})
				}
			}
			continue
		}

		visited[top.hash] = true

		mutates, mutations, err := b.SemanticValidate()
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidBundle, "%s: %s", top.hash, err)
		}

		vs := visitState{hash: top.hash}
		if mutates {
			conflict := false
			for _, m := range mutations {
				newBalance := get(m.Address) + m.Diff
				if newBalance < 0 || newBalance > ledger.Supply {
					conflict = true
					break
				}
			}
			if conflict {
				vs.conflicting = true
			} else {
				for _, m := range mutations {
					scratch[m.Address] += m.Diff
				}
			}
		}
		order = append(order, vs)
	}

	result := &ConfirmationResult{Index: index}
	for _, vs := range order {
		result.TailsIncluded = append(result.TailsIncluded, vs.hash)
		if vs.conflicting {
			result.Conflicting = append(result.Conflicting, vs.hash)
		}
	}

	for addr, diff := range scratch {
		if err := c.ledger.Apply(addr, diff); err != nil {
			return nil, errors.Wrap(err, "ledger apply failed after conflict pass succeeded")
		}
	}

	confirmedAt := time.Unix(int64(milestoneTimestamp), 0)
	conflictSet := make(map[hornet.Hash]bool, len(result.Conflicting))
	for _, h := range result.Conflicting {
		conflictSet[h] = true
	}
	for _, h := range result.TailsIncluded {
		c.tangle.UpdateMetadata(h, func(meta *tangleModel.TransactionMetadata) {
			meta.SetConfirmed(index, confirmedAt, conflictSet[h])
		})
		metrics.SharedServerMetrics.ConfirmedTransactions.Inc()
	}

	metrics.SharedServerMetrics.ConfirmedMilestones.Inc()
	c.Events.MilestoneConfirmed.Trigger(result)
	return result, nil
}
