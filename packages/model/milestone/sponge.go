package milestone

import (
	"github.com/pkg/errors"

	"github.com/iotaledger/iota.go/curl"
	"github.com/iotaledger/iota.go/kerl"
)

// SpongeType selects the ternary sponge construction used for milestone
// hashing, configured via coordinator.sponge_type (spec.md §6).
type SpongeType string

const (
	SpongeKerl    SpongeType = "kerl"
	SpongeCurlP27 SpongeType = "curl27"
	SpongeCurlP81 SpongeType = "curl81"
)

// Sponge is the subset of the ternary sponge interface the validator needs.
// The actual trit permutation (Kerl/CurlP27/CurlP81) is a pure-function
// cryptographic primitive and is explicitly out of scope per spec.md §1;
// this interface only lets the validator select and drive one.
type Sponge interface {
	Absorb(trits []int8) error
	Squeeze(length int) ([]int8, error)
	Reset()
}

// NewSponge constructs the configured sponge implementation. It returns an
// error for an unknown SpongeType and does not fall back to Kerl.
func NewSponge(t SpongeType) (Sponge, error) {
	switch t {
	case SpongeKerl:
		return kerl.NewKerl(), nil
	case SpongeCurlP27:
		return curl.NewCurlP27(), nil
	case SpongeCurlP81:
		return curl.NewCurlP81(), nil
	default:
		return nil, errors.Errorf("unknown sponge type %q", t)
	}
}
