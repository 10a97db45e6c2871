package bundle

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

func TestSemanticValidateZeroValueBundleDoesNotMutate(t *testing.T) {
	b := &Bundle{
		Hash: trytes('Z'),
		Transactions: []BundleTransaction{
			{Hash: trytes('0'), Address: trytes('A'), Value: 0, Index: 0},
		},
	}
	mutates, mutations, err := b.SemanticValidate()
	require.NoError(t, err)
	assert.False(t, mutates)
	assert.Empty(t, mutations)
}

func TestSemanticValidateAggregatesValueByAddress(t *testing.T) {
	b := &Bundle{
		Hash: trytes('Z'),
		Transactions: []BundleTransaction{
			{Hash: trytes('0'), Address: trytes('A'), Value: -50, Index: 0},
			{Hash: trytes('1'), Address: trytes('B'), Value: 30, Index: 1},
			{Hash: trytes('2'), Address: trytes('B'), Value: 20, Index: 2},
		},
	}
	mutates, mutations, err := b.SemanticValidate()
	require.NoError(t, err)
	assert.True(t, mutates)

	diffs := make(map[hornet.Hash]int64, len(mutations))
	for _, m := range mutations {
		diffs[m.Address] = m.Diff
	}
	assert.Equal(t, int64(-50), diffs[trytes('A')])
	assert.Equal(t, int64(50), diffs[trytes('B')])
}

func TestSemanticValidateRejectsOutOfOrderIndices(t *testing.T) {
	b := &Bundle{
		Hash: trytes('Z'),
		Transactions: []BundleTransaction{
			{Hash: trytes('0'), Address: trytes('A'), Index: 0},
			{Hash: trytes('2'), Address: trytes('B'), Index: 2},
		},
	}
	_, _, err := b.SemanticValidate()
	assert.ErrorIs(t, err, ErrIndexOutOfOrder)
}

func TestSemanticValidateRejectsEmptyBundle(t *testing.T) {
	b := &Bundle{Hash: trytes('Z')}
	_, _, err := b.SemanticValidate()
	assert.ErrorIs(t, err, ErrEmptyBundle)
}

func TestReconstructRequiresEveryIndexPresent(t *testing.T) {
	tg := tangle.New()
	bundleHash := trytes('Z')

	tail := &tangle.Transaction{Hash: trytes('0'), Bundle: bundleHash, Index: 0, LastIndex: 1}
	tg.Insert(tail, tail.Hash)

	_, err := Reconstruct(tg, tail.Hash)
	assert.ErrorIs(t, err, ErrMissingBundle)

	head := &tangle.Transaction{Hash: trytes('1'), Bundle: bundleHash, Index: 1, LastIndex: 1, Trunk: tail.Hash, Branch: tail.Hash}
	tg.Insert(head, head.Hash)

	b, err := Reconstruct(tg, tail.Hash)
	require.NoError(t, err)
	assert.Len(t, b.Transactions, 2)
	assert.Equal(t, tail.Hash, b.TailHash())
}

func TestReconstructMissingTailTransaction(t *testing.T) {
	tg := tangle.New()
	_, err := Reconstruct(tg, trytes('0'))
	assert.ErrorIs(t, err, ErrMissingBundle)
}
