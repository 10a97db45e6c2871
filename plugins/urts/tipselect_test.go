package urts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// stampTip inserts a solid tip hanging off sep and stamps its OTRSI/YTRSI
// directly, bypassing the propagator so each test can exercise ScoreTip in
// isolation against a chosen otrsi/ytrsi combination.
func stampTip(t *testing.T, tg *tangle.Tangle, sep, hash hornet.Hash, otrsi, ytrsi milestone_index.MilestoneIndex) {
	t.Helper()
	tx := &tangle.Transaction{Hash: hash, Trunk: sep, Branch: sep, Bundle: hash}
	tg.Insert(tx, tx.Hash)
	require.True(t, tg.IsSolid(tx.Hash))
	tg.UpdateMetadata(tx.Hash, func(meta *tangle.TransactionMetadata) {
		meta.SetOTRSIYTRSI(otrsi, ytrsi)
	})
}

// TestScoreTipSemiLazyWhenOneParentPasses is spec.md §8 scenario 5: a tip
// with exactly one parent inside the OTRSI-delta window scores Semi-Lazy.
func TestScoreTipSemiLazyWhenOneParentPasses(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)
	tg.SetSnapshotMilestoneIndex(0)

	thresholds := DefaultThresholds
	lastSolid := milestone_index.MilestoneIndex(100)

	passingParent := trytes('P')
	stampTip(t, tg, sep, passingParent, lastSolid-thresholds.OTRSIDelta, lastSolid)

	failingParent := trytes('F')
	stampTip(t, tg, sep, failingParent, lastSolid-thresholds.OTRSIDelta-1, lastSolid)

	sel := NewSelector(tg, thresholds, 1)
	tip := &tangle.Transaction{Hash: trytes('T'), Trunk: passingParent, Branch: failingParent, Bundle: trytes('T')}
	tg.Insert(tip, tip.Hash)
	tg.UpdateMetadata(tip.Hash, func(meta *tangle.TransactionMetadata) {
		meta.SetOTRSIYTRSI(lastSolid-1, lastSolid)
	})

	assert.Equal(t, ScoreSemiLazy, sel.ScoreTip(tip.Hash, lastSolid))
}

// TestScoreTipLazyBelowMaxDepth is spec.md §8 scenario 6: a tip whose own
// OTRSI is more than BelowMaxDepth below lastSolid is Lazy regardless of its
// parents.
func TestScoreTipLazyBelowMaxDepth(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)
	tg.SetSnapshotMilestoneIndex(0)

	thresholds := DefaultThresholds
	lastSolid := milestone_index.MilestoneIndex(100)

	tip := trytes('D')
	stampTip(t, tg, sep, tip, lastSolid-thresholds.BelowMaxDepth-1, lastSolid)

	sel := NewSelector(tg, thresholds, 1)
	assert.Equal(t, ScoreLazy, sel.ScoreTip(tip, lastSolid))
}

func TestScoreTipLazyWhenYTRSIGapTooLarge(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)

	thresholds := DefaultThresholds
	lastSolid := milestone_index.MilestoneIndex(100)

	tip := trytes('Y')
	stampTip(t, tg, sep, tip, lastSolid, lastSolid-thresholds.YTRSIDelta-1)

	sel := NewSelector(tg, thresholds, 1)
	assert.Equal(t, ScoreLazy, sel.ScoreTip(tip, lastSolid))
}

func TestScoreTipNonLazyWhenBothParentsPass(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)
	tg.SetSnapshotMilestoneIndex(0)

	thresholds := DefaultThresholds
	lastSolid := milestone_index.MilestoneIndex(100)

	p1 := trytes('1')
	stampTip(t, tg, sep, p1, lastSolid, lastSolid)
	p2 := trytes('2')
	stampTip(t, tg, sep, p2, lastSolid, lastSolid)

	sel := NewSelector(tg, thresholds, 1)
	tip := &tangle.Transaction{Hash: trytes('T'), Trunk: p1, Branch: p2, Bundle: trytes('T')}
	tg.Insert(tip, tip.Hash)
	tg.UpdateMetadata(tip.Hash, func(meta *tangle.TransactionMetadata) {
		meta.SetOTRSIYTRSI(lastSolid, lastSolid)
	})

	assert.Equal(t, ScoreNonLazy, sel.ScoreTip(tip.Hash, lastSolid))
}

func TestSelectTipReturnsFalseWhenNoPositiveWeightTip(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)
	tg.SetSnapshotMilestoneIndex(0)

	thresholds := DefaultThresholds
	lastSolid := milestone_index.MilestoneIndex(100)

	lazy := trytes('L')
	stampTip(t, tg, sep, lazy, lastSolid-thresholds.BelowMaxDepth-1, lastSolid)

	sel := NewSelector(tg, thresholds, 1)
	_, ok := sel.SelectTip(lastSolid)
	assert.False(t, ok)
}

func TestSelectTipRespectsMaxSelections(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)
	lastSolid := milestone_index.MilestoneIndex(100)
	tg.SetSnapshotMilestoneIndex(lastSolid) // sep's OTRSI/YTRSI equal lastSolid, so it passes the parent check

	thresholds := DefaultThresholds
	thresholds.MaxSelections = 1

	tip := trytes('O')
	stampTip(t, tg, sep, tip, lastSolid, lastSolid)

	sel := NewSelector(tg, thresholds, 1)
	got, ok := sel.SelectTip(lastSolid)
	require.True(t, ok)
	assert.Equal(t, tip, got)

	_, ok = sel.SelectTip(lastSolid)
	assert.False(t, ok, "a tip already selected MaxSelections times must not be offered again")
}
