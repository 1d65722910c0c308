package tx

import (
	"fmt"

	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx *Transaction
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{
		tx: &Transaction{Version: 1},
	}
}

// AddInput adds an input consuming the given out point.
func (b *Builder) AddInput(prevOut types.OutPoint) *Builder {
	b.tx.Inputs = append(b.tx.Inputs, Input{PrevOut: prevOut})
	return b
}

// AddOutput adds an output cell with a capacity and lock script.
func (b *Builder) AddOutput(capacity uint64, lock types.Script) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{Capacity: capacity, Lock: lock})
	return b
}

// AddOutputWithData adds an output cell carrying data and an optional type script.
func (b *Builder) AddOutputWithData(capacity uint64, lock types.Script, typ *types.Script, data []byte) *Builder {
	b.tx.Outputs = append(b.tx.Outputs, Output{
		Capacity: capacity,
		Lock:     lock,
		Type:     typ,
		Data:     data,
	})
	return b
}

// Sign fills every input's witness with a signature from the provided key.
// Witness layout for the default lock: signature(65) + pubkey(33).
func (b *Builder) Sign(key *crypto.PrivateKey) error {
	hash := b.tx.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	witness := make([]byte, 0, crypto.SignatureSize+crypto.CompressedPubKeySize)
	witness = append(witness, sig...)
	witness = append(witness, key.PublicKey()...)

	b.tx.Witnesses = make([][]byte, len(b.tx.Inputs))
	for i := range b.tx.Inputs {
		b.tx.Witnesses[i] = witness
	}
	return nil
}

// SignMulti signs each input with the key owning the cell it consumes.
// cellAddr maps each input's out point to the owning address; signers maps
// each address to its private key.
func (b *Builder) SignMulti(
	signers map[types.Address]*crypto.PrivateKey,
	cellAddr map[types.OutPoint]types.Address,
) error {
	hash := b.tx.Hash()

	// Same key always produces the same witness for the same hash.
	cache := make(map[types.Address][]byte)

	b.tx.Witnesses = make([][]byte, len(b.tx.Inputs))
	for i := range b.tx.Inputs {
		addr, ok := cellAddr[b.tx.Inputs[i].PrevOut]
		if !ok {
			return fmt.Errorf("no address mapping for input %d out point", i)
		}
		key, ok := signers[addr]
		if !ok {
			return fmt.Errorf("no signer for address %s (input %d)", addr, i)
		}

		witness, cached := cache[addr]
		if !cached {
			sig, err := key.Sign(hash[:])
			if err != nil {
				return fmt.Errorf("sign input %d: %w", i, err)
			}
			witness = make([]byte, 0, crypto.SignatureSize+crypto.CompressedPubKeySize)
			witness = append(witness, sig...)
			witness = append(witness, key.PublicKey()...)
			cache[addr] = witness
		}
		b.tx.Witnesses[i] = witness
	}
	return nil
}

// Build returns the constructed transaction.
func (b *Builder) Build() *Transaction {
	return b.tx
}
