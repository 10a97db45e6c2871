package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

func TestMemoryCodecRoundTrip(t *testing.T) {
	codec := NewMemoryCodec()

	hb := &Heartbeat{
		LastSolidMilestoneIndex: milestone_index.MilestoneIndex(100),
		SnapshotMilestoneIndex:  milestone_index.MilestoneIndex(90),
		LastMilestoneIndex:      milestone_index.MilestoneIndex(101),
	}
	data, err := codec.Encode(hb)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, hb, decoded)
}

func TestMemoryCodecTruncated(t *testing.T) {
	codec := NewMemoryCodec()
	_, err := codec.Decode([]byte{byte(TypeHeartbeat), 0x00})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestMemoryCodecUnknownType(t *testing.T) {
	codec := NewMemoryCodec()
	_, err := codec.Decode([]byte{0xff})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestMilestoneRequestRoundTrip(t *testing.T) {
	codec := NewMemoryCodec()
	mr := &MilestoneRequest{Index: milestone_index.MilestoneIndex(42)}
	data, err := codec.Encode(mr)
	require.NoError(t, err)
	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, mr, decoded)
}
