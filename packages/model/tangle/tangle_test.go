package tangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

func trytes(prefix byte) hornet.Hash {
	b := make([]byte, 81)
	for i := range b {
		b[i] = prefix
	}
	return hornet.Hash(b)
}

func TestInsertIsIdempotent(t *testing.T) {
	tg := New()
	sep := trytes('A')
	tx := &Transaction{Hash: trytes('B'), Trunk: sep, Branch: sep, Bundle: trytes('C')}
	tg.AddSolidEntryPoint(sep)

	require.True(t, tg.Insert(tx, tx.Hash))
	require.False(t, tg.Insert(tx, tx.Hash), "second insert of the same hash must be a no-op")
	assert.True(t, tg.Contains(tx.Hash))
}

func TestInsertMarksSolidWhenParentsAreEntryPoints(t *testing.T) {
	tg := New()
	sep := trytes('A')
	tg.AddSolidEntryPoint(sep)

	tail := &Transaction{Hash: trytes('B'), Trunk: sep, Branch: sep, Bundle: trytes('B')}
	tg.Insert(tail, tail.Hash)

	assert.True(t, tg.IsSolid(tail.Hash))
	meta, ok := tg.GetMetadata(tail.Hash)
	require.True(t, ok)
	assert.True(t, meta.IsSolid())
}

func TestInsertPropagatesSolidityToWaitingChild(t *testing.T) {
	tg := New()
	sep := trytes('A')
	tg.AddSolidEntryPoint(sep)

	missingParent := trytes('X')
	child := &Transaction{Hash: trytes('B'), Trunk: missingParent, Branch: sep, Bundle: trytes('B')}
	tg.Insert(child, child.Hash)

	assert.False(t, tg.IsSolid(child.Hash))

	parent := &Transaction{Hash: missingParent, Trunk: sep, Branch: sep, Bundle: trytes('X')}
	tg.Insert(parent, parent.Hash)

	// the arriving parent cascades solidity into the child that was
	// waiting on it.
	assert.True(t, tg.IsSolid(child.Hash))
}

func TestTipsTracksFrontier(t *testing.T) {
	tg := New()
	sep := trytes('A')
	tg.AddSolidEntryPoint(sep)

	tail := &Transaction{Hash: trytes('B'), Trunk: sep, Branch: sep, Bundle: trytes('B')}
	tg.Insert(tail, tail.Hash)
	assert.Contains(t, tg.Tips(), tail.Hash)
	assert.Equal(t, 1, tg.NumTips())

	child := &Transaction{Hash: trytes('C'), Trunk: tail.Hash, Branch: tail.Hash, Bundle: trytes('C')}
	tg.Insert(child, child.Hash)

	tips := tg.Tips()
	assert.NotContains(t, tips, tail.Hash, "a referenced transaction is no longer a tip")
	assert.Contains(t, tips, child.Hash)
}

func TestMilestoneIndexAccessors(t *testing.T) {
	tg := New()
	assert.Zero(t, tg.LastMilestoneIndex())

	tg.UpdateLastMilestoneIndex(5)
	tg.UpdateLastMilestoneIndex(3) // must not regress
	assert.EqualValues(t, 5, tg.LastMilestoneIndex())

	tg.UpdateLastSolidMilestoneIndex(4)
	assert.EqualValues(t, 4, tg.LastSolidMilestoneIndex())

	tail := trytes('M')
	tg.SetMilestoneHash(5, tail)
	got, ok := tg.MilestoneHash(5)
	require.True(t, ok)
	assert.Equal(t, tail, got)
	assert.True(t, tg.ContainsMilestone(5))
	assert.False(t, tg.ContainsMilestone(6))
}
