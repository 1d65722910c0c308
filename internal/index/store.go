// Package index maintains a local, rollback-capable mirror of the node's
// cell set: primary cell records keyed by out point, script reverse lookups,
// per-script running capacity totals, transaction records, and the indexed
// checkpoint. All mutation flows through a single writer applying one atomic
// storage batch per block (or per rolled-back height).
package index

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tessera-net/tessera-cli/internal/log"
	"github.com/tessera-net/tessera-cli/internal/storage"
	"github.com/tessera-net/tessera-cli/pkg/block"
	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Checkpoint records the highest fully-indexed block. Advanced only after
// the block's whole delta batch is durably committed.
type Checkpoint struct {
	Height uint64     `json:"indexed_height"`
	Hash   types.Hash `json:"indexed_tip_hash"`
}

// TransactionRecord holds the per-transaction metadata kept for history and
// fee queries. Derived from block deltas, never independently mutated.
type TransactionRecord struct {
	TxHash      types.Hash       `json:"tx_hash"`
	BlockHeight uint64           `json:"block_height"`
	Inputs      []types.OutPoint `json:"inputs"`
	Outputs     []types.Cell     `json:"outputs"`
}

// undoRecord stores what a height's batch touched, enough to invert it.
type undoRecord struct {
	Created  []types.OutPoint `json:"created"`
	Consumed []types.OutPoint `json:"consumed"`
	Txs      []types.Hash     `json:"txs"`
}

// Store is the cell index over a storage.DB.
type Store struct {
	db storage.DB

	// halted is set when indexing stops on a fatal error; queries issued
	// afterwards are flagged stale.
	halted atomic.Bool
}

// NewStore creates a cell index backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying database for maintenance commands.
func (s *Store) DB() storage.DB {
	return s.db
}

// Halted reports whether indexing has stopped on a fatal error.
func (s *Store) Halted() bool {
	return s.halted.Load()
}

// SetHalted marks indexing as halted (or resumed). Queries keep answering
// from the last good checkpoint, flagged stale.
func (s *Store) SetHalted(h bool) {
	s.halted.Store(h)
}

// Checkpoint returns the indexed tip, or (nil, nil) when the index is empty.
func (s *Store) Checkpoint() (*Checkpoint, error) {
	data, err := s.db.Get(keyCheckpoint)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get checkpoint: %w", err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: checkpoint: %v", storage.ErrCorrupt, err)
	}
	return &cp, nil
}

// BlockHash returns the indexed block hash at the given height.
// Returns storage.ErrNotFound if the height is not indexed.
func (s *Store) BlockHash(height uint64) (types.Hash, error) {
	data, err := s.db.Get(heightKey(height))
	if err != nil {
		return types.Hash{}, err
	}
	if len(data) != types.HashSize {
		return types.Hash{}, fmt.Errorf("%w: height index entry has %d bytes", storage.ErrCorrupt, len(data))
	}
	var h types.Hash
	copy(h[:], data)
	return h, nil
}

// GetCell returns the cell record for the given out point, live or dead.
func (s *Store) GetCell(op types.OutPoint) (*types.Cell, error) {
	data, err := s.db.Get(cellKey(op))
	if err != nil {
		return nil, err
	}
	var c types.Cell
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: cell %s: %v", storage.ErrCorrupt, op, err)
	}
	return &c, nil
}

// GetTransaction returns the indexed transaction record for the given hash.
func (s *Store) GetTransaction(txHash types.Hash) (*TransactionRecord, error) {
	data, err := s.db.Get(txKey(txHash))
	if err != nil {
		return nil, err
	}
	var rec TransactionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: tx record %s: %v", storage.ErrCorrupt, txHash, err)
	}
	return &rec, nil
}

// ApplyBlock applies one block digest as a single atomic batch: cell
// creations, cell consumptions, transaction records, history entries, the
// undo record and the advanced checkpoint all commit together.
//
// Re-applying an already-indexed height is a no-op (checkpoint guard). A
// digest that does not directly extend the indexed tip fails with
// ErrDiscontinuousChain; consuming an unknown or dead cell fails with
// ErrDanglingConsumption. On any error nothing is written.
func (s *Store) ApplyBlock(d *block.Digest) error {
	cp, err := s.Checkpoint()
	if err != nil {
		return err
	}
	if cp != nil {
		if d.Height <= cp.Height {
			log.Index.Debug().
				Uint64("height", d.Height).
				Uint64("indexed", cp.Height).
				Msg("skipping already-indexed block")
			return nil
		}
		if d.Height != cp.Height+1 {
			return fmt.Errorf("%w: got height %d, indexed tip is %d",
				ErrDiscontinuousChain, d.Height, cp.Height)
		}
		if d.ParentHash != cp.Hash {
			return fmt.Errorf("%w: block %d parent %s != indexed tip %s",
				ErrDiscontinuousChain, d.Height, d.ParentHash, cp.Hash)
		}
	}

	batch := s.db.NewBatch()
	undo := undoRecord{}
	totals := make(map[types.Hash]int64)
	// Cells created in this digest, visible to same-block consumptions
	// before the batch commits.
	pending := make(map[types.OutPoint]*types.Cell)

	// Creations first so intra-block chains resolve.
	for i := range d.Creations {
		cell := d.Creations[i]
		cell.CreatedAt = d.Height
		cell.ConsumedAt = nil

		data, err := json.Marshal(&cell)
		if err != nil {
			return fmt.Errorf("marshal cell %s: %w", cell.OutPoint, err)
		}
		if err := batch.Put(cellKey(cell.OutPoint), data); err != nil {
			return err
		}

		lockHash := crypto.ScriptHash(cell.Lock)
		if err := batch.Put(scriptKey(prefixLock, lockHash, cell.OutPoint), nil); err != nil {
			return err
		}
		if cell.Type != nil {
			typeHash := crypto.ScriptHash(*cell.Type)
			if err := batch.Put(scriptKey(prefixType, typeHash, cell.OutPoint), nil); err != nil {
				return err
			}
		}
		totals[lockHash] += int64(cell.Capacity)

		c := cell
		pending[cell.OutPoint] = &c
		undo.Created = append(undo.Created, cell.OutPoint)
	}

	for _, op := range d.Consumptions {
		cell, ok := pending[op]
		if !ok {
			loaded, err := s.GetCell(op)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("%w: %s at height %d", ErrDanglingConsumption, op, d.Height)
			}
			if err != nil {
				return err
			}
			cell = loaded
		}
		if !cell.IsLive() {
			return fmt.Errorf("%w: %s already consumed at height %d",
				ErrDanglingConsumption, op, *cell.ConsumedAt)
		}

		h := d.Height
		cell.ConsumedAt = &h
		data, err := json.Marshal(cell)
		if err != nil {
			return fmt.Errorf("marshal cell %s: %w", op, err)
		}
		if err := batch.Put(cellKey(op), data); err != nil {
			return err
		}

		lockHash := crypto.ScriptHash(cell.Lock)
		if err := batch.Delete(scriptKey(prefixLock, lockHash, op)); err != nil {
			return err
		}
		if cell.Type != nil {
			typeHash := crypto.ScriptHash(*cell.Type)
			if err := batch.Delete(scriptKey(prefixType, typeHash, op)); err != nil {
				return err
			}
		}
		totals[lockHash] -= int64(cell.Capacity)

		pending[op] = cell
		undo.Consumed = append(undo.Consumed, op)
	}

	// Transaction records and per-script history, in the same batch.
	for _, delta := range d.TxDeltas {
		rec := TransactionRecord{
			TxHash:      delta.TxHash,
			BlockHeight: d.Height,
			Inputs:      delta.Inputs,
			Outputs:     delta.Outputs,
		}
		data, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshal tx record %s: %w", delta.TxHash, err)
		}
		if err := batch.Put(txKey(delta.TxHash), data); err != nil {
			return err
		}

		hashes, err := s.txScriptHashes(&rec, pending)
		if err != nil {
			return err
		}
		for sh := range hashes {
			if err := batch.Put(historyKey(sh, d.Height, delta.TxHash), nil); err != nil {
				return err
			}
		}

		undo.Txs = append(undo.Txs, delta.TxHash)
	}

	if err := s.applyTotals(batch, totals); err != nil {
		return err
	}

	undoData, err := json.Marshal(&undo)
	if err != nil {
		return fmt.Errorf("marshal undo: %w", err)
	}
	if err := batch.Put(undoKey(d.Height), undoData); err != nil {
		return err
	}
	if err := batch.Put(heightKey(d.Height), d.Hash[:]); err != nil {
		return err
	}

	cpData, err := json.Marshal(&Checkpoint{Height: d.Height, Hash: d.Hash})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := batch.Put(keyCheckpoint, cpData); err != nil {
		return err
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit block %d: %w", d.Height, err)
	}

	log.Index.Debug().
		Uint64("height", d.Height).
		Int("creations", len(d.Creations)).
		Int("consumptions", len(d.Consumptions)).
		Msg("block applied")
	return nil
}

// RollbackTo reverses all block deltas above the target height, one atomic
// batch per height from the tip down. After it returns, the checkpoint is at
// the target (or the index is empty if the target precedes the first indexed
// block).
func (s *Store) RollbackTo(target uint64) error {
	cp, err := s.Checkpoint()
	if err != nil {
		return err
	}
	if cp == nil || cp.Height <= target {
		return nil
	}
	first, ok, err := s.FirstIndexed()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	// A target below the first indexed height empties the index.
	for h := cp.Height; h > target; h-- {
		if err := s.rollbackOne(h); err != nil {
			return fmt.Errorf("rollback height %d: %w", h, err)
		}
		if h == first {
			break
		}
	}

	log.Index.Info().
		Uint64("from", cp.Height).
		Uint64("to", target).
		Msg("rolled back")
	return nil
}

// FirstIndexed returns the lowest indexed height, or ok=false when the
// index is empty.
func (s *Store) FirstIndexed() (height uint64, ok bool, err error) {
	scanErr := s.db.Scan(prefixHeight, nil, func(key, _ []byte) error {
		h, kerr := heightFromKey(key)
		if kerr != nil {
			return kerr
		}
		height, ok = h, true
		return storage.ErrStopScan
	})
	if scanErr != nil {
		return 0, false, scanErr
	}
	return height, ok, nil
}

// Reset rolls back every indexed height, one batch per height, leaving the
// index empty.
func (s *Store) Reset() error {
	cp, err := s.Checkpoint()
	if err != nil {
		return err
	}
	if cp == nil {
		return nil
	}
	first, ok, err := s.FirstIndexed()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	for h := cp.Height; ; h-- {
		if err := s.rollbackOne(h); err != nil {
			return fmt.Errorf("rollback height %d: %w", h, err)
		}
		if h == first {
			return nil
		}
	}
}

// rollbackOne inverts a single height's batch. Consumptions are reverted
// before creations so a cell both created and consumed at this height nets
// out to deletion.
func (s *Store) rollbackOne(height uint64) error {
	undoData, err := s.db.Get(undoKey(height))
	if err != nil {
		return fmt.Errorf("load undo: %w", err)
	}
	var undo undoRecord
	if err := json.Unmarshal(undoData, &undo); err != nil {
		return fmt.Errorf("%w: undo %d: %v", storage.ErrCorrupt, height, err)
	}

	batch := s.db.NewBatch()
	totals := make(map[types.Hash]int64)

	// Revive consumed cells.
	for _, op := range undo.Consumed {
		cell, err := s.GetCell(op)
		if err != nil {
			return fmt.Errorf("load consumed cell %s: %w", op, err)
		}
		cell.ConsumedAt = nil
		data, err := json.Marshal(cell)
		if err != nil {
			return fmt.Errorf("marshal cell %s: %w", op, err)
		}
		if err := batch.Put(cellKey(op), data); err != nil {
			return err
		}

		lockHash := crypto.ScriptHash(cell.Lock)
		if err := batch.Put(scriptKey(prefixLock, lockHash, op), nil); err != nil {
			return err
		}
		if cell.Type != nil {
			typeHash := crypto.ScriptHash(*cell.Type)
			if err := batch.Put(scriptKey(prefixType, typeHash, op), nil); err != nil {
				return err
			}
		}
		totals[lockHash] += int64(cell.Capacity)
	}

	// Delete created cells.
	for _, op := range undo.Created {
		cell, err := s.GetCell(op)
		if err != nil {
			return fmt.Errorf("load created cell %s: %w", op, err)
		}
		if err := batch.Delete(cellKey(op)); err != nil {
			return err
		}

		lockHash := crypto.ScriptHash(cell.Lock)
		if err := batch.Delete(scriptKey(prefixLock, lockHash, op)); err != nil {
			return err
		}
		if cell.Type != nil {
			typeHash := crypto.ScriptHash(*cell.Type)
			if err := batch.Delete(scriptKey(prefixType, typeHash, op)); err != nil {
				return err
			}
		}
		totals[lockHash] -= int64(cell.Capacity)
	}

	// Remove transaction records and their history entries.
	for _, txHash := range undo.Txs {
		rec, err := s.GetTransaction(txHash)
		if err != nil {
			return fmt.Errorf("load tx record %s: %w", txHash, err)
		}
		hashes, err := s.txScriptHashes(rec, nil)
		if err != nil {
			return err
		}
		for sh := range hashes {
			if err := batch.Delete(historyKey(sh, height, txHash)); err != nil {
				return err
			}
		}
		if err := batch.Delete(txKey(txHash)); err != nil {
			return err
		}
	}

	if err := s.applyTotals(batch, totals); err != nil {
		return err
	}

	if err := batch.Delete(undoKey(height)); err != nil {
		return err
	}
	if err := batch.Delete(heightKey(height)); err != nil {
		return err
	}

	// Move the checkpoint down, or clear it when rolling back the first
	// indexed block.
	prevHash, err := s.BlockHash(height - 1)
	switch {
	case err == nil:
		cpData, err := json.Marshal(&Checkpoint{Height: height - 1, Hash: prevHash})
		if err != nil {
			return fmt.Errorf("marshal checkpoint: %w", err)
		}
		if err := batch.Put(keyCheckpoint, cpData); err != nil {
			return err
		}
	case errors.Is(err, storage.ErrNotFound):
		if err := batch.Delete(keyCheckpoint); err != nil {
			return err
		}
	default:
		return err
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("commit rollback %d: %w", height, err)
	}
	return nil
}

// txScriptHashes collects the script hashes a transaction touches: lock and
// type hashes of its outputs plus lock hashes of the cells it consumed.
// pending supplies uncommitted same-batch cells during apply; pass nil
// during rollback, when every referenced cell is already committed.
func (s *Store) txScriptHashes(rec *TransactionRecord, pending map[types.OutPoint]*types.Cell) (map[types.Hash]struct{}, error) {
	hashes := make(map[types.Hash]struct{})
	for i := range rec.Outputs {
		hashes[crypto.ScriptHash(rec.Outputs[i].Lock)] = struct{}{}
		if rec.Outputs[i].Type != nil {
			hashes[crypto.ScriptHash(*rec.Outputs[i].Type)] = struct{}{}
		}
	}
	for _, op := range rec.Inputs {
		cell, ok := pending[op]
		if !ok {
			loaded, err := s.GetCell(op)
			if err != nil {
				return nil, fmt.Errorf("load input cell %s: %w", op, err)
			}
			cell = loaded
		}
		hashes[crypto.ScriptHash(cell.Lock)] = struct{}{}
	}
	return hashes, nil
}

// applyTotals folds per-script capacity deltas into the stored running
// totals. A total that reaches zero is deleted so rollback restores the
// store byte-for-byte.
func (s *Store) applyTotals(batch storage.Batch, totals map[types.Hash]int64) error {
	for sh, delta := range totals {
		if delta == 0 {
			continue
		}
		current, err := s.balance(sh)
		if err != nil {
			return err
		}
		next := int64(current) + delta
		if next < 0 {
			return fmt.Errorf("%w: balance underflow for script %s", storage.ErrCorrupt, sh)
		}
		key := balanceKey(sh)
		if next == 0 {
			if err := batch.Delete(key); err != nil {
				return err
			}
			continue
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(next))
		if err := batch.Put(key, buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// balance reads the committed running total for a script hash (0 if unset).
func (s *Store) balance(scriptHash types.Hash) (uint64, error) {
	data, err := s.db.Get(balanceKey(scriptHash))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: balance entry has %d bytes", storage.ErrCorrupt, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
