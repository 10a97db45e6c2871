// Package tangle implements the in-memory tangle store: the concurrent
// hash→(transaction, metadata) mapping, the parent→children index, the
// solid-entry-point set, the tips set and the global milestone indices.
//
// Grounded on the teacher's checkSolidity/solidQueueCheck walk shape
// (SimonHausdorf-hornet plugins/tangle/solidifier.go) and on the
// hornet.ContainsMessage / hornet.GetCachedMessageOrNil accessor style seen
// across the pack (e31b3a6f Metz-2-hornet pkg/protocol/processor).
package tangle

import (
	"github.com/iotaledger/hive.go/syncutils"

	"github.com/iotaledger/hornet-core/packages/concurrent"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

// Tangle is the process-wide tangle store. Exactly one instance is expected
// per running node; see packages/app for the one-shot singleton wiring.
type Tangle struct {
	Events *Events

	transactions *concurrent.ShardedMap // hash -> *Transaction
	metadata     *concurrent.ShardedMap // hash -> *TransactionMetadata
	children     *concurrent.ShardedMap // hash -> *concurrent.Set
	bundles      *concurrent.ShardedMap // bundle hash -> *concurrent.Set of tx hashes

	tips            *concurrent.Set
	solidEntryPoint *concurrent.Set

	milestones *concurrent.ShardedMap // index string -> hornet.Hash

	indexMu        syncutils.RWMutex
	snapshotIndex  milestone_index.MilestoneIndex
	lastSolidIndex milestone_index.MilestoneIndex
	lastIndex      milestone_index.MilestoneIndex
}

// New creates an empty Tangle.
func New() *Tangle {
	return &Tangle{
		Events:          newEvents(),
		transactions:    concurrent.NewShardedMap(),
		metadata:        concurrent.NewShardedMap(),
		children:        concurrent.NewShardedMap(),
		bundles:         concurrent.NewShardedMap(),
		tips:            concurrent.NewSet(),
		solidEntryPoint: concurrent.NewSet(),
		milestones:      concurrent.NewShardedMap(),
	}
}

func indexKey(i milestone_index.MilestoneIndex) string {
	return i.String()
}

// Insert adds tx under hash if it is not already present. It returns false
// (a no-op) if the hash was already known, satisfying the idempotence law.
// On a successful insert it updates the parent→children index, recomputes
// the tips set and sets the solid flag if both parents are already solid or
// solid entry points.
func (t *Tangle) Insert(tx *Transaction, hash hornet.Hash) (inserted bool) {
	meta := newTransactionMetadata()
	if tx.IsTail() {
		meta.setTail()
	}

	_, loaded := t.transactions.LoadOrStore(string(hash), tx)
	if loaded {
		return false
	}
	t.metadata.Store(string(hash), meta)
	t.bundleSetFor(tx.Bundle).Add(string(hash))

	parents := uniqueParents(tx.Trunk, tx.Branch)
	for _, parent := range parents {
		t.childSetFor(parent).Add(string(hash))
		// a parent that just gained a child is no longer a tip.
		t.tips.Remove(string(parent))
	}

	// the new transaction is a tip unless something already referenced it
	// (possible if a child arrived out of order before this parent).
	if t.childSetFor(hash).Len() == 0 {
		t.tips.Add(string(hash))
	}

	if t.parentsSolid(parents) {
		meta.setSolid()
		t.Events.TransactionSolid.Trigger(hash)
		// hash may be the missing parent some already-present child was
		// waiting on; cascade solidity into that child and beyond.
		t.PropagateSolidity(hash)
	}

	return true
}

func uniqueParents(trunk, branch hornet.Hash) []hornet.Hash {
	if trunk == branch {
		return []hornet.Hash{trunk}
	}
	return []hornet.Hash{trunk, branch}
}

func (t *Tangle) childSetFor(hash hornet.Hash) *concurrent.Set {
	v, _ := t.children.LoadOrStore(string(hash), concurrent.NewSet())
	return v.(*concurrent.Set)
}

func (t *Tangle) bundleSetFor(bundleHash hornet.Hash) *concurrent.Set {
	v, _ := t.bundles.LoadOrStore(string(bundleHash), concurrent.NewSet())
	return v.(*concurrent.Set)
}

// BundleTransactionHashes returns a snapshot of every transaction hash
// sharing bundleHash, in no particular order; callers reconstruct bundle
// order from each transaction's Index field.
func (t *Tangle) BundleTransactionHashes(bundleHash hornet.Hash) []hornet.Hash {
	v, ok := t.bundles.Load(string(bundleHash))
	if !ok {
		return nil
	}
	snap := v.(*concurrent.Set).Snapshot()
	out := make([]hornet.Hash, len(snap))
	for i, s := range snap {
		out[i] = hornet.Hash(s)
	}
	return out
}

func (t *Tangle) parentsSolid(parents []hornet.Hash) bool {
	for _, p := range parents {
		if !t.IsSolid(p) {
			return false
		}
	}
	return true
}

// Get returns the transaction stored under hash, if any.
func (t *Tangle) Get(hash hornet.Hash) (*Transaction, bool) {
	v, ok := t.transactions.Load(string(hash))
	if !ok {
		return nil, false
	}
	return v.(*Transaction), true
}

// Contains reports whether a transaction is stored under hash.
func (t *Tangle) Contains(hash hornet.Hash) bool {
	_, ok := t.transactions.Load(string(hash))
	return ok
}

// GetMetadata returns the metadata stored under hash, if any.
func (t *Tangle) GetMetadata(hash hornet.Hash) (*TransactionMetadata, bool) {
	v, ok := t.metadata.Load(string(hash))
	if !ok {
		return nil, false
	}
	return v.(*TransactionMetadata), true
}

// UpdateMetadata runs f on the live metadata stored under hash. It is a
// no-op if hash is unknown. Each TransactionMetadata accessor and setter
// takes the entry's own lock, so single calls inside f are atomic, but f as
// a whole is not serialized against other callers of the same entry.
func (t *Tangle) UpdateMetadata(hash hornet.Hash, f func(meta *TransactionMetadata)) {
	meta, ok := t.GetMetadata(hash)
	if !ok {
		return
	}
	f(meta)
}

// IsSolid reports whether hash is solid: true unconditionally for solid
// entry points (no body required), otherwise the stored solid flag.
func (t *Tangle) IsSolid(hash hornet.Hash) bool {
	if t.ContainsSolidEntryPoint(hash) {
		return true
	}
	meta, ok := t.GetMetadata(hash)
	if !ok {
		return false
	}
	return meta.IsSolid()
}

// Children returns a snapshot of the current children of hash.
func (t *Tangle) Children(hash hornet.Hash) []hornet.Hash {
	v, ok := t.children.Load(string(hash))
	if !ok {
		return nil
	}
	snap := v.(*concurrent.Set).Snapshot()
	out := make([]hornet.Hash, len(snap))
	for i, s := range snap {
		out[i] = hornet.Hash(s)
	}
	return out
}

// AddSolidEntryPoint registers hash as a solid entry point imported from the
// snapshot, and cascades solidity into any children already present.
func (t *Tangle) AddSolidEntryPoint(hash hornet.Hash) {
	t.solidEntryPoint.Add(string(hash))
	t.PropagateSolidity(hash)
}

// ContainsSolidEntryPoint reports whether hash is a solid entry point.
func (t *Tangle) ContainsSolidEntryPoint(hash hornet.Hash) bool {
	return t.solidEntryPoint.Contains(string(hash))
}

// Tips returns a snapshot of the current tip set.
func (t *Tangle) Tips() []hornet.Hash {
	snap := t.tips.Snapshot()
	out := make([]hornet.Hash, len(snap))
	for i, s := range snap {
		out[i] = hornet.Hash(s)
	}
	return out
}

// NumTips returns the size of the current tip set.
func (t *Tangle) NumTips() int {
	return t.tips.Len()
}

// SetMilestoneHash records the tail hash for a validated milestone index.
func (t *Tangle) SetMilestoneHash(index milestone_index.MilestoneIndex, hash hornet.Hash) {
	t.milestones.Store(indexKey(index), hash)
}

// MilestoneHash returns the tail hash stored for index, if any.
func (t *Tangle) MilestoneHash(index milestone_index.MilestoneIndex) (hornet.Hash, bool) {
	v, ok := t.milestones.Load(indexKey(index))
	if !ok {
		return "", false
	}
	return v.(hornet.Hash), true
}

// ContainsMilestone reports whether a tail hash has been recorded for index.
func (t *Tangle) ContainsMilestone(index milestone_index.MilestoneIndex) bool {
	_, ok := t.MilestoneHash(index)
	return ok
}

// SnapshotMilestoneIndex returns the index of the snapshot the node booted
// from.
func (t *Tangle) SnapshotMilestoneIndex() milestone_index.MilestoneIndex {
	t.indexMu.RLock()
	defer t.indexMu.RUnlock()
	return t.snapshotIndex
}

// SetSnapshotMilestoneIndex sets the snapshot index. Only valid during
// startup bootstrap.
func (t *Tangle) SetSnapshotMilestoneIndex(index milestone_index.MilestoneIndex) {
	t.indexMu.Lock()
	t.snapshotIndex = index
	t.indexMu.Unlock()
}

// LastSolidMilestoneIndex returns the highest milestone index confirmed by
// the white-flag engine.
func (t *Tangle) LastSolidMilestoneIndex() milestone_index.MilestoneIndex {
	t.indexMu.RLock()
	defer t.indexMu.RUnlock()
	return t.lastSolidIndex
}

// UpdateLastSolidMilestoneIndex advances the last-solid pointer. Callers
// (the milestone solidifier) are responsible for only ever advancing it by
// exactly one.
func (t *Tangle) UpdateLastSolidMilestoneIndex(index milestone_index.MilestoneIndex) {
	t.indexMu.Lock()
	t.lastSolidIndex = index
	t.indexMu.Unlock()
}

// LastMilestoneIndex returns the highest milestone index the node has seen
// and validated, whether or not it is solid yet.
func (t *Tangle) LastMilestoneIndex() milestone_index.MilestoneIndex {
	t.indexMu.RLock()
	defer t.indexMu.RUnlock()
	return t.lastIndex
}

// UpdateLastMilestoneIndex advances the last-seen pointer if index is newer.
func (t *Tangle) UpdateLastMilestoneIndex(index milestone_index.MilestoneIndex) {
	t.indexMu.Lock()
	if index > t.lastIndex {
		t.lastIndex = index
	}
	t.indexMu.Unlock()
}
