// Package tx defines transaction types and construction helpers.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"

	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Transaction consumes cells referenced by its inputs and creates the cells
// described by its outputs.
type Transaction struct {
	Version uint32   `json:"version"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
	// Witnesses holds per-input unlocking data (signature + pubkey for the
	// default lock). Excluded from the transaction hash.
	Witnesses [][]byte `json:"witnesses"`
}

// Input references a live cell being consumed. Since encodes a minimum
// height/time constraint on the spend; the cellbase input sets it to the
// block height so every block's reward transaction has a distinct hash.
type Input struct {
	PrevOut types.OutPoint `json:"previous_output"`
	Since   uint64         `json:"since"`
}

// Output describes a cell to create.
type Output struct {
	Capacity uint64        `json:"capacity"`
	Lock     types.Script  `json:"lock"`
	Type     *types.Script `json:"type,omitempty"`
	Data     []byte        `json:"-"`
}

// outputJSON carries Data as hex.
type outputJSON struct {
	Capacity uint64        `json:"capacity"`
	Lock     types.Script  `json:"lock"`
	Type     *types.Script `json:"type,omitempty"`
	Data     string        `json:"data"`
}

// MarshalJSON encodes the output with hex-encoded data.
func (o Output) MarshalJSON() ([]byte, error) {
	return json.Marshal(outputJSON{
		Capacity: o.Capacity,
		Lock:     o.Lock,
		Type:     o.Type,
		Data:     hex.EncodeToString(o.Data),
	})
}

// UnmarshalJSON decodes an output with hex-encoded data.
func (o *Output) UnmarshalJSON(data []byte) error {
	var j outputJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	o.Capacity = j.Capacity
	o.Lock = j.Lock
	o.Type = j.Type
	o.Data = nil
	if j.Data != "" {
		b, err := hex.DecodeString(j.Data)
		if err != nil {
			return fmt.Errorf("invalid output data hex: %w", err)
		}
		o.Data = b
	}
	return nil
}

// DataHash returns the hash of the output's attached data.
func (o Output) DataHash() types.Hash {
	return crypto.Hash(o.Data)
}

// IsCellbase returns true for the block reward transaction, which has a
// single input with a zero previous output.
func (t *Transaction) IsCellbase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PrevOut.IsZero()
}

// Hash computes the transaction ID (BLAKE3 of the canonical serialization,
// witnesses excluded so signing does not change the ID).
func (t *Transaction) Hash() types.Hash {
	return crypto.Hash(t.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for hashing
// and signing.
// Format: version(4) | input_count(4) | [prevout(36) + since(8)]... |
// output_count(4) | [capacity(8) + lock + type_flag(1)[+type] + data_hash(32)]...
func (t *Transaction) SigningBytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, t.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf = append(buf, in.PrevOut.Serialize()...)
		buf = binary.LittleEndian.AppendUint64(buf, in.Since)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Capacity)
		buf = append(buf, out.Lock.Serialize()...)
		if out.Type != nil {
			buf = append(buf, 1)
			buf = append(buf, out.Type.Serialize()...)
		} else {
			buf = append(buf, 0)
		}
		dh := out.DataHash()
		buf = append(buf, dh[:]...)
	}

	return buf
}

// TotalOutputCapacity returns the sum of all output capacities.
// Returns an error if the sum overflows uint64.
func (t *Transaction) TotalOutputCapacity() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-out.Capacity {
			return 0, fmt.Errorf("output capacity overflow")
		}
		total += out.Capacity
	}
	return total, nil
}
