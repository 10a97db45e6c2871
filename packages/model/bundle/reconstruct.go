package bundle

import (
	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/tangle"
)

// ErrMissingBundle is returned by Reconstruct when not every transaction
// that should belong to the bundle is present in the tangle yet. This is
// the transient MissingBundle condition spec.md §7 describes: not fatal, a
// signal to request and retry.
var ErrMissingBundle = errors.New("bundle cannot be reconstructed from tangle contents")

// Reconstruct builds a Bundle from every transaction the tangle holds under
// tailTx.Bundle, validating that the indices form a single contiguous
// 0..lastIndex run anchored at tailHash with no gaps. It returns
// ErrMissingBundle rather than a partial Bundle when the tangle does not yet
// hold the whole group, so callers can tell "incomplete" apart from
// "structurally broken" (ErrIndexOutOfOrder, surfaced by SemanticValidate).
func Reconstruct(t *tangle.Tangle, tailHash hornet.Hash) (*Bundle, error) {
	tail, ok := t.Get(tailHash)
	if !ok {
		return nil, errors.Wrapf(ErrMissingBundle, "tail %s not found", tailHash)
	}

	hashes := t.BundleTransactionHashes(tail.Bundle)
	if len(hashes) == 0 {
		return nil, errors.Wrapf(ErrMissingBundle, "no transactions for bundle %s", tail.Bundle)
	}

	b := &Bundle{Hash: tail.Bundle}
	seen := make(map[int]bool, len(hashes))
	for _, h := range hashes {
		tx, ok := t.Get(h)
		if !ok {
			return nil, errors.Wrapf(ErrMissingBundle, "transaction %s vanished mid-reconstruction", h)
		}
		if seen[tx.Index] {
			continue
		}
		seen[tx.Index] = true
		b.Transactions = append(b.Transactions, BundleTransaction{
			Hash:    tx.Hash,
			Address: tx.Address,
			Value:   tx.Value,
			Index:   tx.Index,
		})
	}

	for i := 0; i <= tail.LastIndex; i++ {
		if !seen[i] {
			return nil, errors.Wrapf(ErrMissingBundle, "bundle %s missing index %d", tail.Bundle, i)
		}
	}

	return b, nil
}
