package tangle

import (
	"github.com/iotaledger/hive.go/events"
	"github.com/iotaledger/hive.go/logger"
	"github.com/iotaledger/iota.go/guards"
	"github.com/iotaledger/iota.go/trinary"

	"github.com/iotaledger/hornet-core/packages/metrics"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/milestone"
	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

// ParsedTransaction is what the hasher hands to the processor: the decoded
// fields plus the computed hash. Decoding the raw byte payload into these
// fields is a transport-layer concern kept external (spec.md §1); this type
// is the boundary.
type ParsedTransaction struct {
	Hash      hornet.Hash
	Trunk     hornet.Hash
	Branch    hornet.Hash
	Address   hornet.Hash
	Value     int64
	Bundle    hornet.Hash
	Index     int
	LastIndex int
	Timestamp uint64
	// SignatureOrMessage is copied unchanged onto the stored transaction.
	SignatureOrMessage []byte
	// CandidateIndex is the milestone index carried in the classic
	// obsolete-tag encoding of a milestone bundle's tail transaction. It is
	// meaningless (and ignored) for ordinary transactions; the decoder only
	// fills it in for tails whose address matches the coordinator.
	CandidateIndex milestone_index.MilestoneIndex
	EndpointID     string
}

func transactionCaller(handler interface{}, params ...interface{}) {
	handler.(func(hash hornet.Hash))(params[0].(hornet.Hash))
}

func broadcastCaller(handler interface{}, params ...interface{}) {
	handler.(func(hash hornet.Hash, sourceEndpointID string))(params[0].(hornet.Hash), params[1].(string))
}

func candidateCaller(handler interface{}, params ...interface{}) {
	handler.(func(candidate milestone.Candidate))(params[0].(milestone.Candidate))
}

// ProcessorEvents are the events fired while processing validated
// transactions.
type ProcessorEvents struct {
	// TransactionStored fires once a transaction has been inserted into the
	// tangle (spec.md §4.4a).
	TransactionStored *events.Event
	// BroadcastTransaction fires for every newly stored transaction so the
	// gossip broadcaster can fan it out to peers other than the source
	// (spec.md §4.4c).
	BroadcastTransaction *events.Event
	// MilestoneCandidate fires when a newly stored tail matches the
	// coordinator address (spec.md §4.4e).
	MilestoneCandidate *events.Event
}

// Processor serializes tangle insertion, enforcing the MWM threshold and
// fanning out the downstream triggers the rest of the node reacts to.
// Grounded on the single-consumer proc.wp workerpool shape of
// Metz-2-hornet's pkg/protocol/processor, narrowed to one worker since
// spec.md §4.4 requires serialized insertion for determinism.
type Processor struct {
	Events *ProcessorEvents

	tangle *tangleModel.Tangle
	mwm    int
	isCandidate func(address hornet.Hash) bool

	in  chan *ParsedTransaction
	log *logger.Logger
}

// NewProcessor creates a Processor bound to t, enforcing mwm trailing-zero
// trits and routing milestone candidates via isCandidate.
func NewProcessor(t *tangleModel.Tangle, mwm int, isCandidate func(address hornet.Hash) bool, queueSize int) *Processor {
	if queueSize <= 0 {
		queueSize = hasherQueueSize
	}
	return &Processor{
		Events: &ProcessorEvents{
			TransactionStored:    events.NewEvent(transactionCaller),
			BroadcastTransaction: events.NewEvent(broadcastCaller),
			MilestoneCandidate:   events.NewEvent(candidateCaller),
		},
		tangle:      t,
		mwm:         mwm,
		isCandidate: isCandidate,
		in:          make(chan *ParsedTransaction, queueSize),
		log:         logger.NewLogger("Processor"),
	}
}

// Submit enqueues a hashed, parsed transaction. Per-source FIFO ordering is
// the caller's responsibility (one channel per endpoint feeding this queue
// preserves it trivially since the processor itself is single-consumer).
func (p *Processor) Submit(tx *ParsedTransaction) {
	p.in <- tx
}

// Run processes queued transactions one at a time until shutdownSignal
// fires, then drains nothing further (in-flight work already popped off the
// channel completes).
func (p *Processor) Run(shutdownSignal <-chan struct{}) {
	for {
		select {
		case tx, ok := <-p.in:
			if !ok {
				return
			}
			p.process(tx)
		case <-shutdownSignal:
			return
		}
	}
}

func (p *Processor) process(parsed *ParsedTransaction) {
	if !guards.IsTransactionHash(string(parsed.Hash)) {
		metrics.SharedServerMetrics.InvalidTransactions.Inc()
		p.log.Debugf("dropping transaction with malformed hash from %s", parsed.EndpointID)
		return
	}

	if !hasValidMWM(parsed.Hash, p.mwm) {
		metrics.SharedServerMetrics.InvalidTransactions.Inc()
		p.log.Debugf("dropping transaction %s: MWM below threshold", parsed.Hash)
		return
	}

	if p.tangle.Contains(parsed.Hash) {
		metrics.SharedServerMetrics.KnownTransactions.Inc()
		return
	}

	tx := &tangleModel.Transaction{
		Hash:      parsed.Hash,
		Trunk:     parsed.Trunk,
		Branch:    parsed.Branch,
		Address:   parsed.Address,
		Value:     parsed.Value,
		Bundle:    parsed.Bundle,
		Index:     parsed.Index,
		LastIndex: parsed.LastIndex,
		Timestamp: parsed.Timestamp,
	}
	tx.SignatureOrMessage = parsed.SignatureOrMessage

	inserted := p.tangle.Insert(tx, parsed.Hash)
	if !inserted {
		metrics.SharedServerMetrics.KnownTransactions.Inc()
		return
	}
	metrics.SharedServerMetrics.NewTransactions.Inc()

	p.Events.TransactionStored.Trigger(parsed.Hash)
	p.Events.BroadcastTransaction.Trigger(parsed.Hash, parsed.EndpointID)

	if tx.IsTail() && p.isCandidate != nil && p.isCandidate(tx.Address) {
		p.Events.MilestoneCandidate.Trigger(milestone.Candidate{
			TailHash:  parsed.Hash,
			Index:     parsed.CandidateIndex,
			Address:   parsed.Address,
			Timestamp: parsed.Timestamp,
		})
	}
}

// hasValidMWM reports whether hash's trailing trits include at least mwm
// consecutive zero trits, the proof-of-work threshold spec.md §4.4
// describes.
func hasValidMWM(hash hornet.Hash, mwm int) bool {
	trits, err := trinary.TrytesToTrits(trinary.Trytes(hash))
	if err != nil {
		return false
	}
	trailingZeros := 0
	for i := len(trits) - 1; i >= 0 && trits[i] == 0; i-- {
		trailingZeros++
	}
	return trailingZeros >= mwm
}
