// Package snapshot defines the bootstrap input contract: solid entry
// points, the seen-milestones watermark and the genesis ledger state a node
// loads before it starts accepting gossip. Real snapshot file parsing
// (binary or JSON on disk) is out of scope per spec.md §1; this package
// only defines the Reader interface callers (packages/app) bootstrap from,
// plus an in-memory test double.
package snapshot

import (
	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/ledger"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// ErrSupplyMismatch is returned when a snapshot's ledger state does not sum
// to the fixed IOTA supply.
var ErrSupplyMismatch = errors.New("snapshot ledger does not sum to supply")

// Metadata is the non-ledger half of a snapshot: the index and timestamp it
// was taken at, and the solid entry points a node bootstrapping from it may
// treat as solid without a body.
type Metadata struct {
	Index            milestone_index.MilestoneIndex
	Timestamp        uint64
	SolidEntryPoints []hornet.Hash
	SeenMilestones   []milestone_index.MilestoneIndex
}

// Reader is implemented by anything that can produce a snapshot's metadata
// and ledger state. The global snapshot and delta-snapshot on-disk formats
// both funnel through this interface.
type Reader interface {
	ReadMetadata() (*Metadata, error)
	ReadState() (map[hornet.Hash]int64, error)
}

// MemReader is an in-memory Reader, used by tests to bootstrap a Tangle and
// ledger.State without touching disk.
type MemReader struct {
	Meta  Metadata
	State map[hornet.Hash]int64
}

// NewMemReader builds a MemReader from explicit metadata and state.
func NewMemReader(meta Metadata, state map[hornet.Hash]int64) *MemReader {
	return &MemReader{Meta: meta, State: state}
}

// ReadMetadata returns the configured metadata.
func (r *MemReader) ReadMetadata() (*Metadata, error) {
	meta := r.Meta
	return &meta, nil
}

// ReadState returns a copy of the configured ledger state.
func (r *MemReader) ReadState() (map[hornet.Hash]int64, error) {
	out := make(map[hornet.Hash]int64, len(r.State))
	for addr, bal := range r.State {
		out[addr] = bal
	}
	return out, nil
}

// Bootstrap reads metadata and state from r and builds the Tangle's
// solid-entry-point set and global indices plus a fresh ledger.State,
// failing fast if the ledger does not sum to supply (spec.md §7's fatal
// startup error).
func Bootstrap(r Reader, t *tangle.Tangle) (*ledger.State, error) {
	meta, err := r.ReadMetadata()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot metadata")
	}
	state, err := r.ReadState()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read snapshot state")
	}

	ledgerState, err := ledger.New(state)
	if err != nil {
		return nil, errors.Wrap(ErrSupplyMismatch, err.Error())
	}

	t.SetSnapshotMilestoneIndex(meta.Index)
	t.UpdateLastSolidMilestoneIndex(meta.Index)
	t.UpdateLastMilestoneIndex(meta.Index)
	for _, sep := range meta.SolidEntryPoints {
		t.AddSolidEntryPoint(sep)
	}

	return ledgerState, nil
}
