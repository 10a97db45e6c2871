package tangle

import (
	"sync"
	"time"

	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/logger"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/bundle"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/ledger"
	"github.com/iotaledger/hornet-core/packages/model/milestone"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	"github.com/iotaledger/hornet-core/packages/model/rqueue"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
	"github.com/iotaledger/hornet-core/plugins/urts"
)

// Decoder turns a hashed raw payload into processor input. Decoding the
// wire trit layout into named fields is the transport/wire-format concern
// spec.md §1 keeps external, so Component takes one as a dependency instead
// of hard-coding a trit-offset parser.
type Decoder func(hashed *HashedTransaction) (*ParsedTransaction, error)

// Component wires the hasher, processor, milestone validator, milestone
// solidifier and white-flag confirmer into one running pipeline, mirroring
// the way the teacher's plugin file holds every package-level collaborator
// the solidifier functions close over.
type Component struct {
	Tangle     *tangleModel.Tangle
	Ledger     *ledger.State
	Hasher     *Hasher
	Processor  *Processor
	Validator  *milestone.Validator
	Solidifier *MilestoneSolidifier
	Confirmer  *Confirmer
	Propagator *urts.Propagator

	txQueue *rqueue.TransactionQueue
	msQueue *rqueue.MilestoneQueue

	log *logger.Logger
}

// New wires a Component around t and l using the given coordinator identity
// and worker sizing, and hooks every cross-component event per spec.md §2's
// data-flow description.
func New(
	t *tangleModel.Tangle,
	l *ledger.State,
	sponge milestone.SpongeType,
	coordinatorPublicKey hornet.Hash,
	coordinatorSecurityLevel int,
	mwm int,
	hasherWorkers int,
	queueSize int,
) *Component {
	validator := milestone.NewValidator(coordinatorPublicKey, coordinatorSecurityLevel, sponge)
	isCandidate := validator.IsCandidate

	c := &Component{
		Tangle:     t,
		Ledger:     l,
		Hasher:     NewHasher(sponge, hasherWorkers, queueSize),
		Processor:  NewProcessor(t, mwm, isCandidate, queueSize),
		Validator:  validator,
		Confirmer:  NewConfirmer(t, l),
		Propagator: urts.NewPropagator(t),
		txQueue:    rqueue.NewTransactionQueue(rqueue.DefaultBackoffPolicy),
		msQueue:    rqueue.NewMilestoneQueue(rqueue.DefaultBackoffPolicy),
		log:        logger.NewLogger("Tangle"),
	}

	c.Solidifier = NewMilestoneSolidifier(t, c.requestMilestone, c.requestTransaction)

	c.Processor.Events.TransactionStored.Attach(events.NewClosure(c.onTransactionStored))
	c.Processor.Events.MilestoneCandidate.Attach(events.NewClosure(c.onMilestoneCandidate))
	c.Validator.Events.NewMilestone.Attach(events.NewClosure(c.onNewMilestone))
	c.Solidifier.Events.SolidMilestoneChanged.Attach(events.NewClosure(c.onSolidMilestoneChanged))
	c.Tangle.Events.TransactionSolid.Attach(events.NewClosure(c.onTransactionSolid))

	return c
}

// TransactionQueue exposes the pending-transaction-request queue so the
// gossip layer's requester can drain it.
func (c *Component) TransactionQueue() *rqueue.TransactionQueue {
	return c.txQueue
}

// MilestoneQueue exposes the pending-milestone-request queue so the gossip
// layer's requester can drain it.
func (c *Component) MilestoneQueue() *rqueue.MilestoneQueue {
	return c.msQueue
}

// Run starts every goroutine Component owns directly (the hasher pool, the
// processor loop, and the hasher-to-processor pump) and blocks until
// shutdownSignal fires. The gossip-facing workers (responders, broadcaster,
// requester, heartbeat) are started separately since they depend on a
// transport the tangle component has no knowledge of.
func (c *Component) Run(decode Decoder, shutdownSignal <-chan struct{}) {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); c.Hasher.Run(shutdownSignal) }()
	go func() { defer wg.Done(); c.Processor.Run(shutdownSignal) }()
	go func() { defer wg.Done(); c.PumpHasher(decode, shutdownSignal) }()
	wg.Wait()
}

// PumpHasher decodes every transaction the hasher finishes hashing and
// submits it to the processor, until shutdownSignal fires or the hasher
// closes its output channel.
func (c *Component) PumpHasher(decode Decoder, shutdownSignal <-chan struct{}) {
	for {
		select {
		case hashed, ok := <-c.Hasher.Out():
			if !ok {
				return
			}
			parsed, err := decode(hashed)
			if err != nil {
				metrics.SharedServerMetrics.InvalidTransactions.Inc()
				c.log.Debugf("failed to decode payload from %s: %s", hashed.EndpointID, err)
				continue
			}
			c.Processor.Submit(parsed)
		case <-shutdownSignal:
			return
		}
	}
}

func (c *Component) requestMilestone(index milestone_index.MilestoneIndex) {
	c.msQueue.Enqueue(index)
}

func (c *Component) requestTransaction(hash hornet.Hash, targetIndex milestone_index.MilestoneIndex) {
	c.txQueue.Enqueue(hash, targetIndex)
}

func (c *Component) onTransactionStored(hash hornet.Hash) {
	c.txQueue.Received(hash)

	if tx, ok := c.Tangle.Get(hash); ok && tx.IsTail() {
		c.Solidifier.NewTransaction(hash, c.Tangle.LastMilestoneIndex()+1)
	}
}

// onTransactionSolid fans the tangle's own solidity signal out to the
// OTRSI/YTRSI propagator. Firing only on an actual solid transition (rather
// than on every stored transaction, solid or not) avoids walking the future
// cone of transactions that never became solid.
func (c *Component) onTransactionSolid(hash hornet.Hash) {
	c.Propagator.OnNewSolidTransaction(hash)
}

// onMilestoneCandidate reconstructs the candidate's bundle and, once every
// signature fragment is present, hands the concatenated signature trits to
// the validator. A bundle that is not yet fully present is not an error:
// the request queue will have already been asked for the missing pieces by
// the solidifier once this tail is submitted there.
func (c *Component) onMilestoneCandidate(candidate milestone.Candidate) {
	b, err := bundle.Reconstruct(c.Tangle, candidate.TailHash)
	if err != nil {
		c.log.Debugf("milestone candidate %s not yet reconstructable: %s", candidate.TailHash, err)
		return
	}

	sigTrits, err := milestoneSignatureTrits(c.Tangle, b, c.Validator.SecurityLevel())
	if err != nil {
		c.log.Debugf("milestone candidate %s missing signature fragments: %s", candidate.TailHash, err)
		return
	}
	candidate.SignatureTrits = sigTrits

	if _, err := c.Validator.Validate(candidate); err != nil {
		c.log.Warnf("milestone candidate %s failed validation: %s", candidate.TailHash, err)
	}
}

func (c *Component) onNewMilestone(m *milestone.Milestone) {
	c.msQueue.Received(m.Index)
	c.Tangle.SetMilestoneHash(m.Index, m.TailHash)
	c.Tangle.UpdateLastMilestoneIndex(m.Index)
	c.Solidifier.NewTransaction(m.TailHash, m.Index)
}

func (c *Component) onSolidMilestoneChanged(index milestone_index.MilestoneIndex) {
	tail, ok := c.Tangle.MilestoneHash(index)
	if !ok {
		c.log.Errorf("solid milestone %d has no recorded tail hash", index)
		return
	}

	tx, ok := c.Tangle.Get(tail)
	if !ok {
		c.log.Errorf("solid milestone %d tail %s missing from tangle", index, tail)
		return
	}

	if _, err := c.Confirmer.Confirm(index, tail, tx.Timestamp); err != nil {
		c.log.Warnf("confirmation of milestone %d failed: %s", index, err)
		return
	}

	c.Propagator.OnNewSolidMilestone(index, tail)
	c.Solidifier.Trigger()
}

// RunStatusLog periodically logs tangle size and tip count, at the cadence
// configured via workers.status_interval, until shutdownSignal fires.
func (c *Component) RunStatusLog(interval time.Duration, shutdownSignal <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.log.Infof("tips: %d, last solid milestone: %d, last milestone: %d",
				c.Tangle.NumTips(), c.Tangle.LastSolidMilestoneIndex(), c.Tangle.LastMilestoneIndex())
		case <-shutdownSignal:
			return
		}
	}
}
