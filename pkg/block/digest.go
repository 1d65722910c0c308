package block

import (
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Digest is a block reduced to the cell deltas the index applies: the cells
// it creates and the out points it consumes, plus the chain-linkage fields
// needed for contiguity and reorg checks.
type Digest struct {
	Height       uint64           `json:"height"`
	Hash         types.Hash       `json:"hash"`
	ParentHash   types.Hash       `json:"parent_hash"`
	Creations    []types.Cell     `json:"cell_creations"`
	Consumptions []types.OutPoint `json:"cell_consumptions"`
	// TxDeltas preserves per-transaction grouping for the transaction index.
	TxDeltas []TxDelta `json:"tx_deltas"`
}

// TxDelta is one transaction's contribution to the block digest.
type TxDelta struct {
	TxHash   types.Hash       `json:"tx_hash"`
	Inputs   []types.OutPoint `json:"inputs"`
	Outputs  []types.Cell     `json:"outputs"`
	Cellbase bool             `json:"cellbase"`
}

// Digest decomposes the block into cell creation and consumption events.
// Every output becomes a live cell stamped with the block height; every
// non-cellbase input becomes a consumption.
func (b *Block) Digest() *Digest {
	d := &Digest{
		Height:     b.Header.Height,
		Hash:       b.Header.Hash(),
		ParentHash: b.Header.ParentHash,
	}

	for _, txn := range b.Transactions {
		txHash := txn.Hash()
		delta := TxDelta{TxHash: txHash, Cellbase: txn.IsCellbase()}

		if !delta.Cellbase {
			for _, in := range txn.Inputs {
				delta.Inputs = append(delta.Inputs, in.PrevOut)
				d.Consumptions = append(d.Consumptions, in.PrevOut)
			}
		}

		for i, out := range txn.Outputs {
			cell := types.Cell{
				OutPoint:  types.OutPoint{TxHash: txHash, Index: uint32(i)},
				Capacity:  out.Capacity,
				Lock:      out.Lock,
				Type:      out.Type,
				DataHash:  out.DataHash(),
				CreatedAt: b.Header.Height,
			}
			delta.Outputs = append(delta.Outputs, cell)
			d.Creations = append(d.Creations, cell)
		}

		d.TxDeltas = append(d.TxDeltas, delta)
	}

	return d
}
