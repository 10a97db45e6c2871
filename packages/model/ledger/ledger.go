// Package ledger implements the address→balance ledger state exclusively
// owned by the white-flag confirmation engine (plugins/tangle/confirmation.go).
// Every other component reads it through a read-only accessor.
package ledger

import (
	"github.com/iotaledger/hive.go/syncutils"
	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

// Supply is the fixed total supply invariant every ledger state must
// preserve exactly.
const Supply int64 = 2_779_530_283_277_761

// ErrBalanceOutOfRange is returned by Apply (and checked ahead of time by
// CheckMutation) when a diff would push an address's balance outside
// [0, Supply].
var ErrBalanceOutOfRange = errors.New("balance out of range")

// State is the address→signed-balance ledger.
type State struct {
	mu       syncutils.RWMutex
	balances map[hornet.Hash]int64
}

// New creates a ledger state seeded with the given genesis balances. The sum
// of seed must equal Supply; callers (the snapshot bootstrap) are expected
// to have validated this already, but New re-checks it as a fatal-at-startup
// guard (spec.md §7: "ledger sum != IOTA_SUPPLY" is a fatal error).
func New(seed map[hornet.Hash]int64) (*State, error) {
	var sum int64
	balances := make(map[hornet.Hash]int64, len(seed))
	for addr, bal := range seed {
		sum += bal
		balances[addr] = bal
	}
	if sum != Supply {
		return nil, errors.Errorf("ledger seed sum %d does not equal IOTA supply %d", sum, Supply)
	}
	return &State{balances: balances}, nil
}

// GetOrZero returns the current balance of address, or zero if unseen.
func (s *State) GetOrZero(address hornet.Hash) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[address]
}

// CheckMutation reports whether applying diff to address would keep its
// balance within [0, Supply], without mutating state. Used by the white-flag
// engine's conflict pass.
func (s *State) CheckMutation(address hornet.Hash, diff int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.balances[address] + diff
	return result >= 0 && result <= Supply
}

// Apply mutates address's balance by diff. The caller must have already
// proven via CheckMutation (or an equivalent whole-bundle conflict pass)
// that the result stays within [0, Supply]; Apply itself still refuses an
// out-of-range result rather than silently corrupting the ledger.
func (s *State) Apply(address hornet.Hash, diff int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.balances[address] + diff
	if result < 0 || result > Supply {
		return errors.Wrapf(ErrBalanceOutOfRange, "address %s: %d + %d", address, s.balances[address], diff)
	}
	s.balances[address] = result
	return nil
}

// Sum returns the sum of all known balances. Used by tests to assert the
// supply invariant after every confirmation.
func (s *State) Sum() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum int64
	for _, bal := range s.balances {
		sum += bal
	}
	return sum
}

// Snapshot returns a copy of the full balance map for read-only inspection
// (e.g. by the webapi layer or tests). Mutating the returned map has no
// effect on the ledger.
func (s *State) Snapshot() map[hornet.Hash]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[hornet.Hash]int64, len(s.balances))
	for addr, bal := range s.balances {
		out[addr] = bal
	}
	return out
}
