package tangle

import (
	"github.com/iotaledger/hive.go/events"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

// Events are the events fired by the Tangle store, matching the
// Events.TransactionSolid / Events.SolidMilestoneChanged idiom of the
// teacher.
type Events struct {
	// TransactionSolid is fired when a transaction's solid flag transitions
	// from false to true.
	TransactionSolid *events.Event
}

func transactionHashCaller(handler interface{}, params ...interface{}) {
	handler.(func(hash hornet.Hash))(params[0].(hornet.Hash))
}

func newEvents() *Events {
	return &Events{
		TransactionSolid: events.NewEvent(transactionHashCaller),
	}
}
