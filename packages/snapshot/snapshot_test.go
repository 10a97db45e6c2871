package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/ledger"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

func TestBootstrapAppliesSnapshot(t *testing.T) {
	sep := hornet.Hash("999999999999999999999999999999999999999999999999999999999999999999999999999999999999")
	reader := NewMemReader(
		Metadata{Index: 7, Timestamp: 1000, SolidEntryPoints: []hornet.Hash{sep}},
		map[hornet.Hash]int64{sep: ledger.Supply},
	)

	tg := tangle.New()
	state, err := Bootstrap(reader, tg)
	require.NoError(t, err)

	assert.Equal(t, ledger.Supply, state.GetOrZero(sep))
	assert.Equal(t, tg.SnapshotMilestoneIndex(), tg.LastSolidMilestoneIndex())
	assert.True(t, tg.ContainsSolidEntryPoint(sep))
}

func TestBootstrapRejectsBadSupply(t *testing.T) {
	reader := NewMemReader(Metadata{Index: 1}, map[hornet.Hash]int64{"A": 1})
	tg := tangle.New()

	_, err := Bootstrap(reader, tg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSupplyMismatch)
}
