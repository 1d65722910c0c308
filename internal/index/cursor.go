package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tessera-net/tessera-cli/internal/log"
	"github.com/tessera-net/tessera-cli/internal/storage"
	"github.com/tessera-net/tessera-cli/pkg/block"
)

// Node is the cursor's view of a chain node. Implementations return errors
// satisfying interface{ Transient() bool } for failures worth retrying.
type Node interface {
	// TipHeight returns the node's current best height.
	TipHeight(ctx context.Context) (uint64, error)
	// BlockByHeight returns the block at the given height on the node's
	// current best chain, or storage.ErrNotFound past the tip.
	BlockByHeight(ctx context.Context, height uint64) (*block.Block, error)
}

// transient reports whether any error in the chain is marked retryable.
func transient(err error) bool {
	var t interface{ Transient() bool }
	return errors.As(err, &t) && t.Transient()
}

// Cursor drives the index forward against a node: it fetches blocks past the
// checkpoint, detects reorgs by parent-hash mismatch, rolls the index back
// to the common ancestor and re-applies the new branch.
type Cursor struct {
	store *Store
	node  Node

	// startHeight is where an empty index begins indexing.
	startHeight uint64
	// pollInterval is how long to sleep when caught up with the node tip.
	pollInterval time.Duration
	// maxBackoff caps the retry backoff for transient node errors.
	maxBackoff time.Duration
}

// NewCursor creates a cursor advancing store against node. pollInterval
// bounds the catch-up sleep; zero selects a sane default.
func NewCursor(store *Store, node Node, pollInterval time.Duration) *Cursor {
	if pollInterval <= 0 {
		pollInterval = 4 * time.Second
	}
	return &Cursor{
		store:        store,
		node:         node,
		pollInterval: pollInterval,
		maxBackoff:   time.Minute,
	}
}

// SyncFrom sets the height an empty index starts at. Has no effect once the
// index holds a checkpoint.
func (c *Cursor) SyncFrom(height uint64) {
	c.startHeight = height
}

// Run synchronizes until ctx is cancelled or a fatal error halts indexing.
// Transient node errors are retried with exponential backoff and never
// terminate the loop.
func (c *Cursor) Run(ctx context.Context) error {
	for {
		advanced, err := c.Step(ctx)
		switch {
		case err == nil:
			if !advanced {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(c.pollInterval):
				}
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		case transient(err):
			log.Cursor.Warn().Err(err).Msg("node unreachable, backing off")
			if err := c.backoffWait(ctx, err); err != nil {
				return err
			}
		default:
			c.store.SetHalted(true)
			log.Cursor.Error().Err(err).Msg("indexing halted")
			return err
		}
	}
}

// Step performs one unit of sync work: apply the next block, or handle a
// reorg. Returns advanced=false when the index is caught up with the node.
func (c *Cursor) Step(ctx context.Context) (advanced bool, err error) {
	tip, err := c.node.TipHeight(ctx)
	if err != nil {
		return false, fmt.Errorf("tip height: %w", err)
	}

	cp, err := c.store.Checkpoint()
	if err != nil {
		return false, err
	}

	var next uint64
	if cp == nil {
		if c.startHeight > tip {
			return false, nil
		}
		next = c.startHeight
	} else {
		if cp.Height >= tip {
			return false, nil
		}
		next = cp.Height + 1
	}

	blk, err := c.node.BlockByHeight(ctx, next)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Tip moved under us. Try again next step.
			return false, nil
		}
		return false, fmt.Errorf("fetch block %d: %w", next, err)
	}

	if cp != nil && blk.Header.ParentHash != cp.Hash {
		return true, c.handleReorg(ctx, cp)
	}

	digest := blk.Digest()
	if err := c.store.ApplyBlock(digest); err != nil {
		if errors.Is(err, ErrDiscontinuousChain) {
			// Checkpoint moved between the read above and the apply.
			return true, nil
		}
		return false, err
	}
	return true, nil
}

// handleReorg walks back from the indexed tip until the node's block hash at
// a height matches the locally indexed hash, then rolls the index back to
// that common ancestor. The abandoned heights are re-applied by subsequent
// steps.
func (c *Cursor) handleReorg(ctx context.Context, cp *Checkpoint) error {
	log.Cursor.Info().
		Uint64("indexed", cp.Height).
		Msg("chain reorganization detected")

	first, ok, err := c.store.FirstIndexed()
	if err != nil {
		return err
	}
	if ok {
		for h := cp.Height; ; h-- {
			blk, err := c.node.BlockByHeight(ctx, h)
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("fetch block %d: %w", h, err)
			}
			if err == nil {
				local, lerr := c.store.BlockHash(h)
				if lerr != nil && !errors.Is(lerr, storage.ErrNotFound) {
					return lerr
				}
				if lerr == nil && local == blk.Header.Hash() {
					// Common ancestor.
					return c.store.RollbackTo(h)
				}
			}
			if h == first {
				break
			}
		}
	}

	// No indexed block survives on the node's chain. Clear the index and
	// let the next steps rebuild from the start height.
	log.Cursor.Warn().Msg("no common ancestor with node chain, resetting index")
	return c.store.Reset()
}

// backoffWait sleeps per the retry schedule for transient failures.
func (c *Cursor) backoffWait(ctx context.Context, cause error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = c.maxBackoff
	bo.MaxElapsedTime = 0
	op := func() error {
		if _, err := c.node.TipHeight(ctx); err != nil {
			if transient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("node unreachable: %w (last: %v)", err, cause)
	}
	return nil
}
