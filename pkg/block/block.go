// Package block defines block types and their decomposition into cell deltas.
package block

import (
	"encoding/binary"

	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/tx"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Header contains block metadata.
type Header struct {
	Version    uint32     `json:"version"`
	ParentHash types.Hash `json:"parent_hash"`
	TxRoot     types.Hash `json:"tx_root"`
	Timestamp  uint64     `json:"timestamp"`
	Height     uint64     `json:"height"`
	Nonce      uint64     `json:"nonce"`
}

// Hash computes the block header hash.
func (h *Header) Hash() types.Hash {
	buf := make([]byte, 0, 92)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.ParentHash[:]...)
	buf = append(buf, h.TxRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, h.Height)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	return crypto.Hash(buf)
}

// Block represents a block as reported by the node.
type Block struct {
	Header       *Header           `json:"header"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// NewBlock creates a new block with the given header and transactions.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}
