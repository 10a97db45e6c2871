package gossip

import (
	"time"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
	"github.com/iotaledger/hornet-core/packages/model/message"
)

// ErrHandshakeTimeout is returned when a peer did not send a Handshake
// within the configured window.
var ErrHandshakeTimeout = errors.New("handshake not received within window")

// ErrIncompatibleHandshake is returned when a received Handshake fails
// compatibility checks against the local configuration.
var ErrIncompatibleHandshake = errors.New("incompatible handshake")

// localSupportedVersions is the local node's version bitmap; bit 0 is the
// only protocol version this implementation speaks.
var localSupportedVersions = versionsBitset([]byte{0x01})

// LocalHandshake builds the outbound Handshake this node sends on every new
// endpoint connection.
func LocalHandshake(port uint16, coordinatorPublicKey hornet.Hash, mwm int) *message.Handshake {
	h := &message.Handshake{
		Port:                   port,
		TimestampMs:            uint64(time.Now().UnixMilli()),
		MinimumWeightMagnitude: uint8(mwm),
		SupportedVersions:      []byte{0x01},
	}
	copy(h.CoordinatorPublicKey[:], coordinatorPublicKey)
	return h
}

// CheckCompatible validates a peer's Handshake against local configuration:
// matching coordinator key, an overlapping version bitmap, and a peer MWM
// at least the local minimum (spec.md §6).
func CheckCompatible(remote *message.Handshake, coordinatorPublicKey hornet.Hash, localMWM int) error {
	if hornet.Hash(remote.CoordinatorPublicKey[:]) != coordinatorPublicKey {
		return errors.Wrap(ErrIncompatibleHandshake, "coordinator public key mismatch")
	}
	if int(remote.MinimumWeightMagnitude) < localMWM {
		return errors.Wrap(ErrIncompatibleHandshake, "peer MWM below local minimum")
	}

	remoteVersions := versionsBitset(remote.SupportedVersions)
	if localSupportedVersions.IntersectionCardinality(remoteVersions) == 0 {
		return errors.Wrap(ErrIncompatibleHandshake, "no overlapping supported versions")
	}
	return nil
}

// versionsBitset expands a wire version bitmap into a bitset.BitSet for
// cardinality comparisons against the local set, using only Set/Test — the
// library's dense-word constructors are not assumed.
func versionsBitset(raw []byte) *bitset.BitSet {
	bs := bitset.New(uint(len(raw)) * 8)
	for byteIdx, b := range raw {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) != 0 {
				bs.Set(uint(byteIdx*8 + bit))
			}
		}
	}
	return bs
}
