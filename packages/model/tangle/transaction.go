package tangle

import (
	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

// Transaction is the immutable body of a tangle transaction. Only the
// fields the core needs to reason about ancestry, bundles and value are
// modeled; the rest of the 8019-trit payload (tags, nonce, …) is opaque to
// the core and owned by the wire codec.
type Transaction struct {
	Hash    hornet.Hash
	Trunk   hornet.Hash
	Branch  hornet.Hash
	Address hornet.Hash
	Value   int64
	Bundle  hornet.Hash
	// Index is the position of this transaction within its bundle.
	Index int
	// LastIndex is the index of the bundle's last (highest-index)
	// transaction, so the bundle holds LastIndex+1 transactions.
	LastIndex int
	Timestamp uint64
	// SignatureOrMessage carries whatever trailing payload the bundle
	// semantics need (signature fragment for value tx, milestone signature
	// for milestone tx). Left opaque on purpose.
	SignatureOrMessage []byte
}

// IsTail reports whether this transaction is the tail of its bundle.
func (t *Transaction) IsTail() bool {
	return t.Index == 0
}
