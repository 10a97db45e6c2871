package app

import (
	"sync"

	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/model/ledger"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

// cell is a one-shot-initialized process-wide value. A second init call is
// a no-op that logs a warning instead of overwriting the first value,
// matching spec.md §9's "one-shot-initialized process-wide cell, guarded so
// second-init warns and returns".
type cell struct {
	mu       sync.Mutex
	value    interface{}
	hasValue bool
	name     string
	log      *logger.Logger
}

func newCell(name string) *cell {
	return &cell{name: name, log: logger.NewLogger("Singleton")}
}

func (c *cell) init(v interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasValue {
		c.log.Warnf("%s already initialized, ignoring second init", c.name)
		return
	}
	c.value = v
	c.hasValue = true
}

// get fails fast if init has not run yet, per spec.md §9: "All reads go
// through an accessor that fails fast if uninitialized."
func (c *cell) get() interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasValue {
		c.log.Panicf("%s accessed before init", c.name)
	}
	return c.value
}

var (
	tangleCell = newCell("Tangle")
	ledgerCell = newCell("Ledger")
)

// Tangle returns the process-wide tangle read-handle. Panics if called
// before New has completed, by design: spec.md §9's fail-fast accessor.
func Tangle() *tangleModel.Tangle {
	return tangleCell.get().(*tangleModel.Tangle)
}

// Ledger returns the process-wide ledger read-handle, owned by the
// white-flag confirmation engine (spec.md §9c).
func Ledger() *ledger.State {
	return ledgerCell.get().(*ledger.State)
}
