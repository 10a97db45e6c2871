package urts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

func trytes(prefix byte) hornet.Hash {
	b := make([]byte, 81)
	for i := range b {
		b[i] = prefix
	}
	return hornet.Hash(b)
}

// TestGapThenFillPopulatesOTRSIYTRSI is spec.md §8 scenario 4: a tail
// referencing a missing parent starts unsolid; once the parent arrives
// (solid), the tail becomes solid and its OTRSI/YTRSI are derived from it.
func TestGapThenFillPopulatesOTRSIYTRSI(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)
	tg.SetSnapshotMilestoneIndex(10)

	p := NewPropagator(tg)

	missingParent := trytes('P')
	t5 := &tangle.Transaction{Hash: trytes('5'), Trunk: missingParent, Branch: sep, Bundle: trytes('5')}
	tg.Insert(t5, t5.Hash)

	assert.False(t, tg.IsSolid(t5.Hash))
	_, _, hasOtrsi := getOTRSIYTRSI(tg, t5.Hash)
	assert.False(t, hasOtrsi)

	parent := &tangle.Transaction{Hash: missingParent, Trunk: sep, Branch: sep, Bundle: trytes('P')}
	tg.Insert(parent, parent.Hash)
	// inserting the parent is enough: Tangle.Insert cascades the solid flag,
	// and the component wiring drives the propagator from the tangle's own
	// TransactionSolid event. Here we call it directly since no Component
	// is wired in this package-level test.
	p.OnNewSolidTransaction(parent.Hash)

	require.True(t, tg.IsSolid(t5.Hash))
	otrsi, ytrsi, ok := getOTRSIYTRSI(tg, t5.Hash)
	require.True(t, ok)
	assert.Equal(t, otrsi, ytrsi, "both root-snapshot indices derive from the same solid-entry-point parent")
}

func getOTRSIYTRSI(tg *tangle.Tangle, hash hornet.Hash) (otrsi, ytrsi interface{}, ok bool) {
	meta, exists := tg.GetMetadata(hash)
	if !exists {
		return nil, nil, false
	}
	o, hasO := meta.OTRSI()
	y, hasY := meta.YTRSI()
	if !hasO || !hasY {
		return nil, nil, false
	}
	return o, y, true
}

func TestOnNewSolidMilestoneStampsUnconfirmedTail(t *testing.T) {
	tg := tangle.New()
	sep := trytes('S')
	tg.AddSolidEntryPoint(sep)

	tail := &tangle.Transaction{Hash: trytes('1'), Trunk: sep, Branch: sep, Bundle: trytes('1')}
	tg.Insert(tail, tail.Hash)

	p := NewPropagator(tg)
	p.OnNewSolidMilestone(1, tail.Hash)

	otrsi, ytrsi, ok := getOTRSIYTRSI(tg, tail.Hash)
	require.True(t, ok)
	assert.Equal(t, otrsi, ytrsi)
}
