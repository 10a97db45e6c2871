package message

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/iotaledger/hornet-core/packages/model/milestone_index"
)

func indexFrom(b []byte) milestone_index.MilestoneIndex {
	return milestone_index.MilestoneIndex(binary.BigEndian.Uint32(b))
}

// ErrUnknownType is returned by Decode for an unrecognized type byte.
var ErrUnknownType = errors.New("unknown message type")

// ErrTruncated is returned by Decode when the buffer is shorter than the
// declared/expected payload for its type.
var ErrTruncated = errors.New("truncated message")

// Codec encodes and decodes tagged wire messages. The real gossip transport
// frames messages with a length-prefixed TLV header; this interface only
// covers the tag+payload the rest of the node cares about, so it can be
// exercised with an in-memory double in tests without standing up a socket.
type Codec interface {
	Encode(msg interface{}) ([]byte, error)
	Decode(data []byte) (interface{}, error)
}

// memoryCodec is a reference Codec good enough for unit tests: a one-byte
// type tag followed by either a fixed-size payload or a variable payload
// that runs to the end of the buffer (no length prefix), mirroring the
// shapes spec.md §6 describes without committing to the real binary layout
// (which lives in the gossip transport, out of this package's scope).
type memoryCodec struct{}

// NewMemoryCodec returns the reference in-memory Codec used by tests.
func NewMemoryCodec() Codec { return memoryCodec{} }

func (memoryCodec) Encode(msg interface{}) ([]byte, error) {
	switch m := msg.(type) {
	case *Handshake:
		buf := make([]byte, 1+2+8+49+1)
		buf[0] = byte(TypeHandshake)
		binary.BigEndian.PutUint16(buf[1:3], m.Port)
		binary.BigEndian.PutUint64(buf[3:11], m.TimestampMs)
		copy(buf[11:60], m.CoordinatorPublicKey[:])
		buf[60] = m.MinimumWeightMagnitude
		return append(buf, m.SupportedVersions...), nil
	case *MilestoneRequest:
		buf := make([]byte, 1+4)
		buf[0] = byte(TypeMilestoneRequest)
		binary.BigEndian.PutUint32(buf[1:5], uint32(m.Index))
		return buf, nil
	case *TransactionBroadcast:
		return append([]byte{byte(TypeTransactionBroadcast)}, m.Data...), nil
	case *TransactionRequest:
		buf := make([]byte, 1+49)
		buf[0] = byte(TypeTransactionRequest)
		copy(buf[1:], m.Hash[:])
		return buf, nil
	case *Heartbeat:
		buf := make([]byte, 1+4+4+4)
		buf[0] = byte(TypeHeartbeat)
		binary.BigEndian.PutUint32(buf[1:5], uint32(m.LastSolidMilestoneIndex))
		binary.BigEndian.PutUint32(buf[5:9], uint32(m.SnapshotMilestoneIndex))
		binary.BigEndian.PutUint32(buf[9:13], uint32(m.LastMilestoneIndex))
		return buf, nil
	default:
		return nil, errors.Errorf("unsupported message type %T", msg)
	}
}

func (memoryCodec) Decode(data []byte) (interface{}, error) {
	if len(data) < 1 {
		return nil, ErrTruncated
	}
	switch Type(data[0]) {
	case TypeHandshake:
		if len(data) < 61 {
			return nil, ErrTruncated
		}
		h := &Handshake{
			Port:        binary.BigEndian.Uint16(data[1:3]),
			TimestampMs: binary.BigEndian.Uint64(data[3:11]),
		}
		copy(h.CoordinatorPublicKey[:], data[11:60])
		h.MinimumWeightMagnitude = data[60]
		if len(data) > 61 {
			h.SupportedVersions = append([]byte(nil), data[61:]...)
		}
		return h, nil
	case TypeMilestoneRequest:
		if len(data) < 5 {
			return nil, ErrTruncated
		}
		return &MilestoneRequest{Index: indexFrom(data[1:5])}, nil
	case TypeTransactionBroadcast:
		return &TransactionBroadcast{Data: append([]byte(nil), data[1:]...)}, nil
	case TypeTransactionRequest:
		if len(data) < 50 {
			return nil, ErrTruncated
		}
		tr := &TransactionRequest{}
		copy(tr.Hash[:], data[1:50])
		return tr, nil
	case TypeHeartbeat:
		if len(data) < 13 {
			return nil, ErrTruncated
		}
		return &Heartbeat{
			LastSolidMilestoneIndex: indexFrom(data[1:5]),
			SnapshotMilestoneIndex:  indexFrom(data[5:9]),
			LastMilestoneIndex:      indexFrom(data[9:13]),
		}, nil
	default:
		return nil, ErrUnknownType
	}
}
