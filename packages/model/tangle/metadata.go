package tangle

import (
	"time"

	"github.com/iotaledger/hive.go/syncutils"

	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

// flag bits, monotonic once set except where noted.
const (
	flagSolid = 1 << iota
	flagTail
	flagConfirmed
	flagConflicting
	flagRequested
)

// TransactionMetadata is the mutable per-transaction state the tangle store
// owns. Every method takes the entry's own lock, so one entry's updates never
// block another entry's.
type TransactionMetadata struct {
	mu syncutils.RWMutex

	flags uint8

	milestoneIndex milestone_index.MilestoneIndex
	hasMilestone   bool

	otrsi    milestone_index.MilestoneIndex
	hasOtrsi bool
	ytrsi    milestone_index.MilestoneIndex
	hasYtrsi bool

	arrivalTimestamp      time.Time
	confirmationTimestamp time.Time

	selectedCount int
}

func newTransactionMetadata() *TransactionMetadata {
	return &TransactionMetadata{
		arrivalTimestamp: time.Now(),
	}
}

func (m *TransactionMetadata) IsSolid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags&flagSolid != 0
}

func (m *TransactionMetadata) setSolid() {
	m.mu.Lock()
	m.flags |= flagSolid
	m.mu.Unlock()
}

func (m *TransactionMetadata) IsTail() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags&flagTail != 0
}

func (m *TransactionMetadata) setTail() {
	m.mu.Lock()
	m.flags |= flagTail
	m.mu.Unlock()
}

func (m *TransactionMetadata) IsConfirmed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags&flagConfirmed != 0
}

func (m *TransactionMetadata) IsConflicting() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags&flagConflicting != 0
}

func (m *TransactionMetadata) IsRequested() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags&flagRequested != 0
}

// SetConfirmed marks the transaction confirmed at the given milestone index
// and timestamp, optionally conflicting. Confirmation is monotonic: once
// set, a later call cannot clear it.
func (m *TransactionMetadata) SetConfirmed(index milestone_index.MilestoneIndex, timestamp time.Time, conflicting bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.flags&flagConfirmed != 0 {
		return
	}
	m.flags |= flagConfirmed
	if conflicting {
		m.flags |= flagConflicting
	}
	m.milestoneIndex = index
	m.hasMilestone = true
	m.confirmationTimestamp = timestamp
}

func (m *TransactionMetadata) MilestoneIndex() (milestone_index.MilestoneIndex, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.milestoneIndex, m.hasMilestone
}

func (m *TransactionMetadata) OTRSI() (milestone_index.MilestoneIndex, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.otrsi, m.hasOtrsi
}

func (m *TransactionMetadata) YTRSI() (milestone_index.MilestoneIndex, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ytrsi, m.hasYtrsi
}

// SetOTRSIYTRSI overwrites both root-snapshot indices. Returns true if
// either value actually changed, so propagation can stop at a fixed point.
func (m *TransactionMetadata) SetOTRSIYTRSI(otrsi, ytrsi milestone_index.MilestoneIndex) (changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hasOtrsi && m.hasYtrsi && m.otrsi == otrsi && m.ytrsi == ytrsi {
		return false
	}
	m.otrsi, m.hasOtrsi = otrsi, true
	m.ytrsi, m.hasYtrsi = ytrsi, true
	return true
}

func (m *TransactionMetadata) ArrivalTimestamp() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.arrivalTimestamp
}

// IncSelectedCount increments the tip-selection counter and returns the new
// value.
func (m *TransactionMetadata) IncSelectedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectedCount++
	return m.selectedCount
}

func (m *TransactionMetadata) SelectedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.selectedCount
}
