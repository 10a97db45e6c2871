package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/milestone"
)

func TestDefaults(t *testing.T) {
	c := New()
	require.NoError(t, c.Parse(nil))

	assert.Equal(t, DefaultMWM, c.MWM())
	assert.Equal(t, DefaultCoordinatorDepth, c.CoordinatorDepth())
	assert.Equal(t, milestone.SpongeKerl, c.CoordinatorSpongeType())
	assert.Equal(t, DefaultTransactionWorkerCache, c.TransactionWorkerCache())
}

func TestParseOverrides(t *testing.T) {
	c := New()
	require.NoError(t, c.Parse([]string{"--mwm=16", "--coordinator.sponge_type=curl27"}))

	assert.Equal(t, 16, c.MWM())
	assert.Equal(t, milestone.SpongeCurlP27, c.CoordinatorSpongeType())
}
