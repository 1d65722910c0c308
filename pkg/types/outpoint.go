package types

import (
	"encoding/binary"
	"fmt"
)

// OutPointSize is the serialized length of an out point: txhash(32) + index(4).
const OutPointSize = HashSize + 4

// OutPoint references a specific output cell of a transaction.
type OutPoint struct {
	TxHash Hash   `json:"tx_hash"`
	Index  uint32 `json:"index"`
}

// IsZero returns true if the out point has a zero TxHash and zero index.
func (o OutPoint) IsZero() bool {
	return o.TxHash.IsZero() && o.Index == 0
}

// String returns "txhash:index" in hex.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxHash.String(), o.Index)
}

// Serialize returns the fixed 36-byte encoding: txhash(32) + index(4) big-endian.
// The big-endian index keeps serialized out points ordered the same way the
// storage layer orders keys.
func (o OutPoint) Serialize() []byte {
	b := make([]byte, OutPointSize)
	copy(b, o.TxHash[:])
	binary.BigEndian.PutUint32(b[HashSize:], o.Index)
	return b
}

// DeserializeOutPoint parses the fixed 36-byte encoding produced by Serialize.
func DeserializeOutPoint(b []byte) (OutPoint, error) {
	if len(b) != OutPointSize {
		return OutPoint{}, fmt.Errorf("out point must be %d bytes, got %d", OutPointSize, len(b))
	}
	var o OutPoint
	copy(o.TxHash[:], b[:HashSize])
	o.Index = binary.BigEndian.Uint32(b[HashSize:])
	return o, nil
}
