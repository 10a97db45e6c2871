package tangle

import (
	"github.com/iotaledger/iota.go/trinary"
	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/bundle"
	"github.com/iotaledger/hornet-core/packages/model/hornet"
	tangleModel "github.com/iotaledger/hornet-core/packages/model/tangle"
)

// ErrIncompleteSignature is returned when a milestone bundle does not carry
// enough signature-fragment transactions for the configured security level.
var ErrIncompleteSignature = errors.New("milestone bundle does not carry enough signature fragments")

// milestoneSignatureTrits concatenates the signature-fragment trits carried
// by a milestone bundle's non-tail transactions at indices 1..securityLevel,
// in index order, the layout the coordinator signs over (spec.md §4.4e).
func milestoneSignatureTrits(t *tangleModel.Tangle, b *bundle.Bundle, securityLevel int) ([]int8, error) {
	byIndex := make(map[int]hornet.Hash, len(b.Transactions))
	for _, bt := range b.Transactions {
		byIndex[bt.Index] = bt.Hash
	}

	var trits []int8
	for i := 1; i <= securityLevel; i++ {
		hash, ok := byIndex[i]
		if !ok {
			return nil, errors.Wrapf(ErrIncompleteSignature, "missing fragment at index %d", i)
		}
		tx, ok := t.Get(hash)
		if !ok {
			return nil, errors.Wrapf(ErrIncompleteSignature, "fragment transaction %s vanished", hash)
		}
		trytes, err := trinary.BytesToTrytes(tx.SignatureOrMessage)
		if err != nil {
			return nil, err
		}
		fragmentTrits, err := trinary.TrytesToTrits(trytes)
		if err != nil {
			return nil, err
		}
		trits = append(trits, fragmentTrits...)
	}
	return trits, nil
}
