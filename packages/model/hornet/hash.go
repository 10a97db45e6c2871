// Package hornet provides the hash aliasing shared by every model package,
// matching the teacher's split between a wire-level hash type and the
// trinary representation iota.go works with.
package hornet

import (
	"github.com/iotaledger/iota.go/trinary"
)

// Hash is a 243-trit transaction or bundle hash, kept in its trytes form.
// The 49-byte binary wire encoding (5 trits per byte) is owned by the
// message codec, not by this type.
type Hash = trinary.Hash

// Hashes is a slice of Hash.
type Hashes = trinary.Hashes

// NullHash is the zero-value hash used for genesis trunk/branch references.
var NullHash = trinary.Hash("999999999999999999999999999999999999999999999999999999999999999999999999999999999")
