package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/tessera-net/tessera-cli/internal/storage"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

// ScriptKind selects which script dimension a live-cell query searches.
type ScriptKind uint8

const (
	// ScriptLock searches cells by lock script hash.
	ScriptLock ScriptKind = iota
	// ScriptType searches cells by type script hash.
	ScriptType
)

func (k ScriptKind) prefix() []byte {
	if k == ScriptType {
		return prefixType
	}
	return prefixLock
}

// CellFilter narrows a live-cell query. The zero value matches everything.
type CellFilter struct {
	// WithType, when set, keeps only cells that have (true) or lack (false)
	// a type script.
	WithType *bool
	// MinCapacity and MaxCapacity bound cell capacity inclusively; zero
	// means unbounded.
	MinCapacity uint64
	MaxCapacity uint64
	// FromBlock and ToBlock bound the creation height inclusively; a zero
	// ToBlock means unbounded.
	FromBlock uint64
	ToBlock   uint64
}

func (f *CellFilter) match(c *types.Cell) bool {
	if f == nil {
		return true
	}
	if f.WithType != nil && (c.Type != nil) != *f.WithType {
		return false
	}
	if f.MinCapacity > 0 && c.Capacity < f.MinCapacity {
		return false
	}
	if f.MaxCapacity > 0 && c.Capacity > f.MaxCapacity {
		return false
	}
	if c.CreatedAt < f.FromBlock {
		return false
	}
	if f.ToBlock > 0 && c.CreatedAt > f.ToBlock {
		return false
	}
	return true
}

// PageCursor is an opaque resume token. A nil cursor starts from the beginning;
// passing back the cursor from a previous page resumes strictly after the
// last entry that page examined, so concurrent index writes can never
// duplicate or starve a paging client.
type PageCursor []byte

// CellPage is one page of live-cell query results.
type CellPage struct {
	Cells []types.Cell
	// Cursor resumes the next page; nil when the scan is exhausted.
	Cursor PageCursor
	// IndexedHeight is the checkpoint height the page was answered at.
	IndexedHeight uint64
	// Stale is set when indexing has halted and results may lag the chain.
	Stale bool
}

// LiveCells returns live cells whose lock (or type) script hashes to
// scriptHash, in stable out-point order, at most limit per page. Tombstoned
// cells never appear. Filtered-out entries still advance the cursor.
func (s *Store) LiveCells(scriptHash types.Hash, kind ScriptKind, filter *CellFilter, cursor PageCursor, limit int) (*CellPage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid page limit %d", limit)
	}

	page := &CellPage{}
	if err := s.stampResult(&page.IndexedHeight, &page.Stale); err != nil {
		return nil, err
	}

	prefix := scriptPrefix(kind.prefix(), scriptHash)
	var start []byte
	if len(cursor) > 0 {
		if !bytes.HasPrefix(cursor, prefix) {
			return nil, fmt.Errorf("cursor does not belong to this query")
		}
		start = cursor
	}

	var last []byte
	seen := 0
	err := s.db.Scan(prefix, start, func(key, _ []byte) error {
		last = append(last[:0], key...)
		seen++

		op, err := outPointFromScriptKey(key)
		if err != nil {
			return err
		}
		cell, err := s.GetCell(op)
		if err != nil {
			return fmt.Errorf("load cell %s: %w", op, err)
		}
		// A marker for a dead cell means a write raced the scan; skip it.
		if !cell.IsLive() {
			return nil
		}
		if !filter.match(cell) {
			return nil
		}

		page.Cells = append(page.Cells, *cell)
		if len(page.Cells) >= limit {
			return storage.ErrStopScan
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Only hand out a cursor when the scan might not be exhausted.
	if len(page.Cells) >= limit && seen > 0 {
		page.Cursor = PageCursor(last)
	}
	return page, nil
}

// Balance returns the total capacity of live cells locked by the script
// hashing to scriptHash, answered from the maintained running total.
func (s *Store) Balance(scriptHash types.Hash) (total uint64, indexedHeight uint64, stale bool, err error) {
	if err = s.stampResult(&indexedHeight, &stale); err != nil {
		return 0, 0, false, err
	}
	total, err = s.balance(scriptHash)
	if err != nil {
		return 0, 0, false, err
	}
	return total, indexedHeight, stale, nil
}

// HistoryPage is one page of transaction history for a script.
type HistoryPage struct {
	Transactions  []TransactionRecord
	Cursor        PageCursor
	IndexedHeight uint64
	Stale         bool
}

// History returns transactions touching the given script hash in ascending
// block-height order, paged like LiveCells.
func (s *Store) History(scriptHash types.Hash, cursor PageCursor, limit int) (*HistoryPage, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("invalid page limit %d", limit)
	}

	page := &HistoryPage{}
	if err := s.stampResult(&page.IndexedHeight, &page.Stale); err != nil {
		return nil, err
	}

	prefix := historyPrefix(scriptHash)
	var start []byte
	if len(cursor) > 0 {
		if !bytes.HasPrefix(cursor, prefix) {
			return nil, fmt.Errorf("cursor does not belong to this query")
		}
		start = cursor
	}

	var last []byte
	err := s.db.Scan(prefix, start, func(key, _ []byte) error {
		last = append(last[:0], key...)

		txHash, err := txHashFromHistoryKey(key)
		if err != nil {
			return err
		}
		rec, err := s.GetTransaction(txHash)
		if errors.Is(err, storage.ErrNotFound) {
			// History marker for a rolled-back tx racing the scan.
			return nil
		}
		if err != nil {
			return err
		}

		page.Transactions = append(page.Transactions, *rec)
		if len(page.Transactions) >= limit {
			return storage.ErrStopScan
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(page.Transactions) >= limit && last != nil {
		page.Cursor = PageCursor(last)
	}
	return page, nil
}

// CapacityRank pairs a script hash with its live capacity total.
type CapacityRank struct {
	ScriptHash types.Hash
	Capacity   uint64
}

// TopCapacity returns the n script hashes holding the most live capacity,
// descending, from the maintained running totals. Ties break on script hash
// so the order is deterministic.
func (s *Store) TopCapacity(n int) (ranks []CapacityRank, indexedHeight uint64, stale bool, err error) {
	if n <= 0 {
		return nil, 0, false, fmt.Errorf("invalid rank count %d", n)
	}
	if err = s.stampResult(&indexedHeight, &stale); err != nil {
		return nil, 0, false, err
	}

	err = s.db.Scan(prefixBalance, nil, func(key, value []byte) error {
		scriptHash, err := scriptHashFromBalanceKey(key)
		if err != nil {
			return err
		}
		if len(value) != 8 {
			return fmt.Errorf("%w: balance value has %d bytes", storage.ErrCorrupt, len(value))
		}
		ranks = append(ranks, CapacityRank{
			ScriptHash: scriptHash,
			Capacity:   binary.BigEndian.Uint64(value),
		})
		return nil
	})
	if err != nil {
		return nil, 0, false, err
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Capacity != ranks[j].Capacity {
			return ranks[i].Capacity > ranks[j].Capacity
		}
		return bytes.Compare(ranks[i].ScriptHash[:], ranks[j].ScriptHash[:]) < 0
	})
	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks, indexedHeight, stale, nil
}

// Metrics reports per-keyspace entry counts for the index store.
type Metrics struct {
	IndexedHeight  uint64
	Cells          int
	LiveLockKeys   int
	LiveTypeKeys   int
	Balances       int
	Blocks         int
	UndoRecords    int
	Transactions   int
	HistoryMarkers int
}

// Metrics counts the entries under every index keyspace. Intended for
// diagnostics; it scans the whole store.
func (s *Store) Metrics() (*Metrics, error) {
	m := &Metrics{}
	var stale bool
	if err := s.stampResult(&m.IndexedHeight, &stale); err != nil {
		return nil, err
	}

	for _, c := range []struct {
		prefix []byte
		count  *int
	}{
		{prefixCell, &m.Cells},
		{prefixLock, &m.LiveLockKeys},
		{prefixType, &m.LiveTypeKeys},
		{prefixBalance, &m.Balances},
		{prefixHeight, &m.Blocks},
		{prefixUndo, &m.UndoRecords},
		{prefixTx, &m.Transactions},
		{prefixHistory, &m.HistoryMarkers},
	} {
		err := s.db.Scan(c.prefix, nil, func(_, _ []byte) error {
			*c.count++
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

// stampResult fills the indexed-height and staleness fields every query
// result carries.
func (s *Store) stampResult(height *uint64, stale *bool) error {
	cp, err := s.Checkpoint()
	if err != nil {
		return err
	}
	if cp != nil {
		*height = cp.Height
	}
	*stale = s.halted.Load()
	return nil
}
