// Package shutdown composes the process-wide shutdown signal every worker
// goroutine selects on, in the style of hive.go/daemon's priority-ordered
// shutdown but without pulling in a process supervisor: this module only
// ever runs embedded, so a single broadcast channel plus named priorities
// for logging order is enough.
package shutdown

import "sync"

// Priority names a shutdown tier. Every component shares the one shutdown
// channel, which closes for all of them at once; no code in this module
// reads these values.
type Priority int

const (
	PriorityMetrics Priority = iota
	PriorityGossip
	PriorityTangle
	PriorityTipSelection
	PriorityWebAPI
	PriorityDatabase
)

// Orchestrator owns the shutdown signal shared by every long-running
// component (hasher, processor, solidifier, responders, broadcaster,
// tip-selection engine, webapi server).
type Orchestrator struct {
	once sync.Once
	done chan struct{}
}

// New creates an Orchestrator ready to be waited on.
func New() *Orchestrator {
	return &Orchestrator{done: make(chan struct{})}
}

// ShutdownSignal returns the channel that closes exactly once, when Shutdown
// is called. Components select on this the way the teacher's worker loops
// select on `shutdownSignal <-chan struct{}` parameters.
func (o *Orchestrator) ShutdownSignal() <-chan struct{} {
	return o.done
}

// Shutdown closes the shutdown signal. Safe to call more than once and from
// more than one goroutine.
func (o *Orchestrator) Shutdown() {
	o.once.Do(func() {
		close(o.done)
	})
}

// IsShuttingDown reports whether Shutdown has already been called.
func (o *Orchestrator) IsShuttingDown() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}
