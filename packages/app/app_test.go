package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hornet-core/packages/config"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/ledger"
	"github.com/iotaledger/hornet-core/packages/snapshot"
	tangleComponent "github.com/iotaledger/hornet-core/plugins/tangle"
)

// fakeTransport is a no-op in-memory stand-in for the wire layer spec.md §1
// keeps external: it satisfies Transport (gossip.Sender + gossip.PeerSet)
// without opening any socket.
type fakeTransport struct{}

func (fakeTransport) Send(endpointID string, data []byte) error { return nil }
func (fakeTransport) EndpointIDs() []string                     { return nil }

func noopDecode(hashed *tangleComponent.HashedTransaction) (*tangleComponent.ParsedTransaction, error) {
	return &tangleComponent.ParsedTransaction{Hash: hashed.Hash, EndpointID: hashed.EndpointID}, nil
}

func testConfig(t *testing.T) *config.NodeConfig {
	t.Helper()
	cfg := config.New()
	require.NoError(t, cfg.Parse(nil))
	return cfg
}

func genesisReader() *snapshot.MemReader {
	sep := hornet.Hash(make([]byte, 81))
	addrX := make([]byte, 81)
	addrX[0] = 'X'
	return snapshot.NewMemReader(
		snapshot.Metadata{Index: 0, SolidEntryPoints: []hornet.Hash{sep}},
		map[hornet.Hash]int64{hornet.Hash(addrX): ledger.Supply},
	)
}

func TestNewWiresEveryComponent(t *testing.T) {
	a, err := New(testConfig(t), genesisReader(), fakeTransport{}, noopDecode)
	require.NoError(t, err)

	assert.NotNil(t, a.Tangle)
	assert.NotNil(t, a.Ledger)
	assert.NotNil(t, a.Component)
	assert.NotNil(t, a.Selector)
	assert.NotNil(t, a.TransactionResponder)
	assert.NotNil(t, a.MilestoneResponder)
	assert.NotNil(t, a.Broadcaster)
	assert.NotNil(t, a.Heartbeat)
	assert.NotNil(t, a.Requester)
	assert.NotNil(t, a.WebAPI)
	assert.EqualValues(t, 0, a.Tangle.SnapshotMilestoneIndex())
}

func TestNewRejectsBadSnapshotSupply(t *testing.T) {
	bad := snapshot.NewMemReader(snapshot.Metadata{Index: 0}, map[hornet.Hash]int64{
		hornet.Hash("addr"): 1,
	})
	_, err := New(testConfig(t), bad, fakeTransport{}, noopDecode)
	assert.Error(t, err)
}

func TestRunSecondCallReturnsErrAlreadyRunning(t *testing.T) {
	a, err := New(testConfig(t), genesisReader(), fakeTransport{}, noopDecode)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run() }()

	// give Run's goroutines a moment to start before asserting the
	// already-running guard and then shutting down.
	time.Sleep(10 * time.Millisecond)

	assert.Equal(t, ErrAlreadyRunning, a.Run())

	a.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
