package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

func TestNewRejectsBadSupply(t *testing.T) {
	_, err := New(map[hornet.Hash]int64{"A": 1})
	assert.Error(t, err)
}

func TestNewAcceptsExactSupply(t *testing.T) {
	s, err := New(map[hornet.Hash]int64{"A": Supply})
	require.NoError(t, err)
	assert.Equal(t, Supply, s.GetOrZero("A"))
	assert.Equal(t, Supply, s.Sum())
}

func TestApplyStaysWithinRange(t *testing.T) {
	s, err := New(map[hornet.Hash]int64{"A": Supply})
	require.NoError(t, err)

	require.True(t, s.CheckMutation("A", -100))
	require.NoError(t, s.Apply("A", -100))
	require.NoError(t, s.Apply("B", 100))

	assert.Equal(t, Supply-100, s.GetOrZero("A"))
	assert.Equal(t, int64(100), s.GetOrZero("B"))
	assert.Equal(t, Supply, s.Sum(), "supply invariant must hold after every apply")
}

func TestApplyRejectsNegativeBalance(t *testing.T) {
	s, err := New(map[hornet.Hash]int64{"A": Supply})
	require.NoError(t, err)

	assert.False(t, s.CheckMutation("B", -1))
	err = s.Apply("B", -1)
	assert.ErrorIs(t, err, ErrBalanceOutOfRange)
}

func TestSnapshotIsACopy(t *testing.T) {
	s, err := New(map[hornet.Hash]int64{"A": Supply})
	require.NoError(t, err)

	snap := s.Snapshot()
	snap["A"] = 0

	assert.Equal(t, Supply, s.GetOrZero("A"), "mutating the snapshot must not affect live state")
}
