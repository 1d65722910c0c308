package rpcclient

import (
	"context"
	"errors"

	"github.com/tessera-net/tessera-cli/internal/storage"
	"github.com/tessera-net/tessera-cli/pkg/block"
	"github.com/tessera-net/tessera-cli/pkg/tx"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// JSON-RPC error codes the node uses for well-known conditions.
const (
	codeBlockNotFound = -32001
)

// IsTransient reports whether err is a retryable transport failure rather
// than a definitive node answer.
func IsTransient(err error) bool {
	var t interface{ Transient() bool }
	return errors.As(err, &t) && t.Transient()
}

// Node exposes the tessera node methods the client needs as typed calls.
type Node struct {
	c *Client
}

// NewNode wraps a client in the typed node API.
func NewNode(c *Client) *Node {
	return &Node{c: c}
}

// TipHeight returns the node's current best block height.
func (n *Node) TipHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := n.c.Call(ctx, "get_tip_height", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// BlockByHeight returns the block at the given height on the node's best
// chain. Heights past the tip map to storage.ErrNotFound.
func (n *Node) BlockByHeight(ctx context.Context, height uint64) (*block.Block, error) {
	var blk block.Block
	err := n.c.Call(ctx, "get_block_by_height", []uint64{height}, &blk)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && rpcErr.Code == codeBlockNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &blk, nil
}

// SubmitTransaction sends a signed transaction to the node's pool and
// returns its hash.
func (n *Node) SubmitTransaction(ctx context.Context, txn *tx.Transaction) (types.Hash, error) {
	var hash types.Hash
	if err := n.c.Call(ctx, "send_transaction", []*tx.Transaction{txn}, &hash); err != nil {
		return types.Hash{}, err
	}
	return hash, nil
}
