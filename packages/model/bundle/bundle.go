// Package bundle models an ordered group of transactions sharing a bundle
// hash and the semantic validation the white-flag engine needs from it.
//
// Grounded on bee-ledger/src/whiteflag/traversal.rs's on_bundle, which
// consumes a (mutates, mutations) pair from bundle.ledger_mutations(); this
// package is the Go-idiomatic rewrite of that shape against
// packages/model/tangle.Transaction.
package bundle

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

// ErrEmptyBundle is returned by SemanticValidate for a bundle with no
// transactions.
var ErrEmptyBundle = errors.New("bundle has no transactions")

// ErrIndexOutOfOrder is returned when the transactions' sorted indices are
// not exactly 0..n-1. The bundle hash of each transaction is not checked.
var ErrIndexOutOfOrder = errors.New("bundle transactions are not contiguously ordered")

// ErrValueTransactionWithoutSignature names a value transaction that carries
// no signature or message fragment at all. SemanticValidate does not inspect
// signature fragments and never returns it.
var ErrValueTransactionWithoutSignature = errors.New("value transaction missing signature/message fragment")

// Mutation is a single signed balance change to an address.
type Mutation struct {
	Address hornet.Hash
	Diff    int64
}

// Bundle is an ordered, tail-first (index ascending starting at the tail)
// sequence of transactions that together represent one semantic operation.
type Bundle struct {
	Hash         hornet.Hash
	Transactions []BundleTransaction
}

// BundleTransaction is the minimal per-transaction view the bundle needs.
type BundleTransaction struct {
	Hash    hornet.Hash
	Address hornet.Hash
	Value   int64
	Index   int
}

// TailHash returns the hash of the bundle's tail (index 0) transaction.
func (b *Bundle) TailHash() hornet.Hash {
	for _, tx := range b.Transactions {
		if tx.Index == 0 {
			return tx.Hash
		}
	}
	return ""
}

// SemanticValidate checks structural validity (contiguous indices, a single
// tail) and returns the aggregated per-address mutation. mutates is false
// for an all-zero-value bundle (e.g. a milestone or a zero-value transfer),
// in which case mutations is empty and must not be applied.
func (b *Bundle) SemanticValidate() (mutates bool, mutations []Mutation, err error) {
	if len(b.Transactions) == 0 {
		return false, nil, ErrEmptyBundle
	}

	sorted := make([]BundleTransaction, len(b.Transactions))
	copy(sorted, b.Transactions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for i, tx := range sorted {
		if tx.Index != i {
			return false, nil, errors.Wrapf(ErrIndexOutOfOrder, "expected index %d, got %d", i, tx.Index)
		}
	}

	diffs := make(map[hornet.Hash]int64)
	order := make([]hornet.Hash, 0, len(sorted))
	for _, tx := range sorted {
		if tx.Value == 0 {
			continue
		}
		if _, seen := diffs[tx.Address]; !seen {
			order = append(order, tx.Address)
		}
		diffs[tx.Address] += tx.Value
	}

	if len(diffs) == 0 {
		return false, nil, nil
	}

	mutations = make([]Mutation, 0, len(order))
	for _, addr := range order {
		mutations = append(mutations, Mutation{Address: addr, Diff: diffs[addr]})
	}

	return true, mutations, nil
}
