package tangle

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/hive.go/syncutils"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

// milestoneRequestRange bounds how many upcoming indices Trigger requests in
// one pass, the same "don't blow up the request queue" guard the teacher's
// maxMissingMilestoneSearchDepth constant encodes for its own walk.
const milestoneRequestRange = 50

func solidMilestoneCaller(handler interface{}, params ...interface{}) {
	handler.(func(index milestone_index.MilestoneIndex))(params[0].(milestone_index.MilestoneIndex))
}

// SolidifierEvents are the events fired by the MilestoneSolidifier.
type SolidifierEvents struct {
	SolidMilestoneChanged *events.Event
}

// RequestMilestone is implemented by the gossip layer to request a missing
// milestone index from peers (spec.md §4.6); kept as a narrow function type
// so this package does not need to import gossip.
type RequestMilestone func(index milestone_index.MilestoneIndex)

// RequestTransaction requests a missing transaction hash targeting the given
// milestone index.
type RequestTransaction func(hash hornet.Hash, targetIndex milestone_index.MilestoneIndex)

// MilestoneSolidifier owns the invariant lower_index = last_solid_index + 1
// and a fixed-width window of per-gap transaction solidifiers (spec.md
// §4.7). gaps.Test(offset) reports whether the gap at lower_index+offset is
// currently being (or has been) worked on, grounded on inx-coordinator's
// go.mod dependency on bits-and-blooms/bitset for exactly this kind of
// small dense window.
type MilestoneSolidifier struct {
	Events *SolidifierEvents

	tangle *tangleModel.Tangle
	log    *logger.Logger

	requestMilestone   RequestMilestone
	requestTransaction RequestTransaction

	mu            syncutils.Mutex
	gaps          *bitset.BitSet
	txSolidifiers map[milestone_index.MilestoneIndex]*TransactionSolidifier
}

// NewMilestoneSolidifier creates a MilestoneSolidifier over t.
func NewMilestoneSolidifier(t *tangleModel.Tangle, requestMilestone RequestMilestone, requestTransaction RequestTransaction) *MilestoneSolidifier {
	return &MilestoneSolidifier{
		Events: &SolidifierEvents{
			SolidMilestoneChanged: events.NewEvent(solidMilestoneCaller),
		},
		tangle:             t,
		log:                logger.NewLogger("MilestoneSolidifier"),
		requestMilestone:   requestMilestone,
		requestTransaction: requestTransaction,
		gaps:               bitset.New(milestoneRequestRange),
		txSolidifiers:      make(map[milestone_index.MilestoneIndex]*TransactionSolidifier),
	}
}

func (s *MilestoneSolidifier) lowerIndex() milestone_index.MilestoneIndex {
	return s.tangle.LastSolidMilestoneIndex() + 1
}

// Trigger requests every milestone in [lower_index, lower_index+range) the
// tangle does not yet hold, and nudges each live transaction-solidifier to
// re-attempt its target (spec.md §4.7). Component calls it once after each
// successfully confirmed milestone; nothing calls it on a timer.
func (s *MilestoneSolidifier) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := s.lowerIndex()
	for offset := uint(0); offset < milestoneRequestRange; offset++ {
		index := lower + milestone_index.MilestoneIndex(offset)
		if s.tangle.ContainsMilestone(index) {
			continue
		}
		if s.requestMilestone != nil {
			s.requestMilestone(index)
		}
	}

	for index, ts := range s.txSolidifiers {
		if index < lower {
			delete(s.txSolidifiers, index)
			continue
		}
		ts.Retry()
	}
}

// NewSolidMilestone handles the milestone solidifier's own completion
// signal: it must name lower_index exactly; any mismatch is logged and
// ignored rather than corrupting the window (spec.md §4.7, and the Open
// Question resolved in DESIGN.md).
func (s *MilestoneSolidifier) NewSolidMilestone(index milestone_index.MilestoneIndex) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := s.lowerIndex()
	if index != lower {
		s.log.Errorf("NewSolidMilestone(%d) does not match lower_index %d, ignoring", index, lower)
		return
	}

	s.tangle.UpdateLastSolidMilestoneIndex(index)
	delete(s.txSolidifiers, index)
	s.shiftGapsWindow()
	s.Events.SolidMilestoneChanged.Trigger(index)
}

// shiftGapsWindow slides the gap bitmap down by one now that lower_index has
// advanced, so bit 0 always tracks the new lower_index again.
func (s *MilestoneSolidifier) shiftGapsWindow() {
	for i := uint(0); i < milestoneRequestRange-1; i++ {
		if s.gaps.Test(i + 1) {
			s.gaps.Set(i)
		} else {
			s.gaps.Clear(i)
		}
	}
	s.gaps.Clear(milestoneRequestRange - 1)
}

// PendingGaps returns the milestone indices within the current window that
// have an active transaction-solidifier, for status reporting.
func (s *MilestoneSolidifier) PendingGaps() []milestone_index.MilestoneIndex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lower := s.lowerIndex()
	var out []milestone_index.MilestoneIndex
	for i, e := s.gaps.NextSet(0); e; i, e = s.gaps.NextSet(i + 1) {
		out = append(out, lower+milestone_index.MilestoneIndex(i))
	}
	return out
}

// NewTransaction routes (hash, index) to the transaction-solidifier working
// the gap at index, starting one if none exists yet for that index.
// Out-of-window indices are logged, per spec.md §4.7.
func (s *MilestoneSolidifier) NewTransaction(hash hornet.Hash, index milestone_index.MilestoneIndex) {
	s.mu.Lock()
	lower := s.lowerIndex()
	if index < lower || index >= lower+milestone_index.MilestoneIndex(milestoneRequestRange) {
		s.mu.Unlock()
		s.log.Warnf("transaction %s for out-of-window milestone %d (window starts at %d)", hash, index, lower)
		return
	}
	ts, ok := s.txSolidifiers[index]
	if !ok {
		ts = NewTransactionSolidifier(s.tangle, index, s.requestTransaction, s)
		s.txSolidifiers[index] = ts
		s.gaps.Set(uint(index - lower))
	}
	s.mu.Unlock()

	ts.NewAncestor(hash)
}

// solidifyGap is called by a TransactionSolidifier once its gap's milestone
// tail and full ancestry are present and solid.
func (s *MilestoneSolidifier) solidifyGap(index milestone_index.MilestoneIndex) {
	s.NewSolidMilestone(index)
}
