package tangle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/ledger"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

func trytes(prefix byte) hornet.Hash {
	b := make([]byte, 81)
	for i := range b {
		b[i] = prefix
	}
	return hornet.Hash(b)
}

// newGenesis builds a tangle + ledger with one solid-entry-point G holding
// the whole supply under addrX, per spec.md §8 scenario 1's setup.
func newGenesis(t *testing.T) (*tangleModel.Tangle, *ledger.State, hornet.Hash, hornet.Hash) {
	t.Helper()
	addrX := trytes('X')
	g := trytes('G')

	tg := tangleModel.New()
	tg.AddSolidEntryPoint(g)
	tg.SetSnapshotMilestoneIndex(0)

	l, err := ledger.New(map[hornet.Hash]int64{addrX: ledger.Supply})
	require.NoError(t, err)

	return tg, l, g, addrX
}

func insertTail(tg *tangleModel.Tangle, hash, trunk, branch, bundle, address hornet.Hash, value int64) {
	tg.Insert(&tangleModel.Transaction{
		Hash: hash, Trunk: trunk, Branch: branch, Bundle: bundle,
		Address: address, Value: value, Index: 0, LastIndex: 0, Timestamp: 1000,
	}, hash)
}

// TestConfirmGenesisMilestone is spec.md §8 scenario 1.
func TestConfirmGenesisMilestone(t *testing.T) {
	tg, l, g, _ := newGenesis(t)

	t1 := trytes('1')
	insertTail(tg, t1, g, g, t1, "", 0)

	c := NewConfirmer(tg, l)
	result, err := c.Confirm(1, t1, 1000)
	require.NoError(t, err)

	assert.Equal(t, ledger.Supply, l.Sum())
	assert.Contains(t, result.TailsIncluded, t1)
	assert.Empty(t, result.Conflicting)

	meta, ok := tg.GetMetadata(t1)
	require.True(t, ok)
	assert.True(t, meta.IsConfirmed())
	assert.False(t, meta.IsConflicting())
}

// TestConfirmValueTransfer is spec.md §8 scenario 2.
func TestConfirmValueTransfer(t *testing.T) {
	tg, l, g, addrX := newGenesis(t)
	addrY := trytes('Y')

	t2 := trytes('2')
	insertTail(tg, t2, g, g, t2, addrX, -100)
	// the offsetting credit shares the same bundle hash and a higher index.
	tg.Insert(&tangleModel.Transaction{
		Hash: trytes('3'), Trunk: t2, Branch: t2, Bundle: t2,
		Address: addrY, Value: 100, Index: 1, LastIndex: 1,
	}, trytes('3'))

	c := NewConfirmer(tg, l)
	result, err := c.Confirm(2, t2, 1000)
	require.NoError(t, err)

	assert.Equal(t, ledger.Supply-100, l.GetOrZero(addrX))
	assert.Equal(t, int64(100), l.GetOrZero(addrY))
	assert.Equal(t, ledger.Supply, l.Sum())
	assert.NotContains(t, result.Conflicting, t2)
}

// TestConfirmConflictingBundleLeavesLedgerUnchanged is spec.md §8 scenario 3.
func TestConfirmConflictingBundleLeavesLedgerUnchanged(t *testing.T) {
	tg, l, g, addrX := newGenesis(t)
	addrY := trytes('Y')
	addrZ := trytes('Z')

	t2 := trytes('2')
	insertTail(tg, t2, g, g, t2, addrX, -100)
	tg.Insert(&tangleModel.Transaction{
		Hash: trytes('3'), Trunk: t2, Branch: t2, Bundle: t2,
		Address: addrY, Value: 100, Index: 1, LastIndex: 1,
	}, trytes('3'))
	c := NewConfirmer(tg, l)
	_, err := c.Confirm(2, t2, 1000)
	require.NoError(t, err)

	// addrY only has 100; attempting to move 200 out of it must conflict.
	t3 := trytes('4')
	insertTail(tg, t3, t2, t2, t3, addrY, -200)
	tg.Insert(&tangleModel.Transaction{
		Hash: trytes('5'), Trunk: t3, Branch: t3, Bundle: t3,
		Address: addrZ, Value: 200, Index: 1, LastIndex: 1,
	}, trytes('5'))

	before := l.Snapshot()
	result, err := c.Confirm(3, t3, 2000)
	require.NoError(t, err)

	assert.Contains(t, result.Conflicting, t3)
	assert.Equal(t, before, l.Snapshot(), "a conflicting bundle's mutations must not be applied")

	meta, ok := tg.GetMetadata(t3)
	require.True(t, ok)
	assert.True(t, meta.IsConfirmed(), "a conflicting tail is still marked confirmed")
	assert.True(t, meta.IsConflicting())
}

func TestConfirmIsIdempotentOnAlreadyConfirmedTail(t *testing.T) {
	tg, l, g, _ := newGenesis(t)
	t1 := trytes('1')
	insertTail(tg, t1, g, g, t1, "", 0)

	c := NewConfirmer(tg, l)
	first, err := c.Confirm(1, t1, 1000)
	require.NoError(t, err)
	require.Equal(t, []hornet.Hash{t1}, first.TailsIncluded)

	second, err := c.Confirm(1, t1, 1000)
	require.NoError(t, err)
	assert.Empty(t, second.TailsIncluded, "an already-confirmed tail is skipped, so nothing is included twice")
	assert.Equal(t, ledger.Supply, l.Sum())
}

func TestConfirmMissingBundleReturnsTransientError(t *testing.T) {
	tg, l, _, _ := newGenesis(t)
	c := NewConfirmer(tg, l)

	_, err := c.Confirm(1, trytes('9'), 1000)
	assert.ErrorIs(t, err, ErrMissingBundle)
}
