package wallet

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tessera-net/tessera-cli/pkg/types"
)

// Coin selection errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNoCells           = errors.New("no live cells available")
)

// CellSelection holds the result of coin selection over live cells.
type CellSelection struct {
	Inputs []types.Cell // Selected cells to consume.
	Total  uint64       // Sum of selected input capacities.
	Change uint64       // Change = Total - target.
}

// SelectCells chooses live cells to fund a transaction of the given target
// capacity. It tries two strategies:
//  1. Single cell: the smallest single cell that covers the target
//     (minimizes inputs and witness bytes).
//  2. Largest-first accumulation: greedily adds the largest cells until the
//     target is met.
//
// Returns the strategy that produces the least change (waste). Cells with a
// type script are never auto-selected; spending one destroys asset state the
// wallet does not understand.
func SelectCells(cells []types.Cell, target uint64) (*CellSelection, error) {
	if len(cells) == 0 {
		return nil, ErrNoCells
	}
	if target == 0 {
		return nil, fmt.Errorf("target must be positive")
	}

	// Filter out typed and zero-capacity cells, sort by capacity ascending.
	candidates := make([]types.Cell, 0, len(cells))
	for _, c := range cells {
		if c.Capacity > 0 && c.Type == nil {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoCells
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Capacity < candidates[j].Capacity
	})

	// Strategy 1: smallest single cell that covers the target.
	var single *CellSelection
	for _, c := range candidates {
		if c.Capacity >= target {
			single = &CellSelection{
				Inputs: []types.Cell{c},
				Total:  c.Capacity,
				Change: c.Capacity - target,
			}
			break // Already sorted ascending, first match is smallest.
		}
	}

	// Strategy 2: largest-first accumulation.
	var accum *CellSelection
	var selected []types.Cell
	var total uint64
	for i := len(candidates) - 1; i >= 0; i-- {
		selected = append(selected, candidates[i])
		total += candidates[i].Capacity
		if total >= target {
			accum = &CellSelection{
				Inputs: selected,
				Total:  total,
				Change: total - target,
			}
			break
		}
	}

	// Pick the best result.
	switch {
	case single != nil && accum != nil:
		// Prefer whichever produces less change (less waste).
		if single.Change <= accum.Change {
			return single, nil
		}
		return accum, nil
	case single != nil:
		return single, nil
	case accum != nil:
		return accum, nil
	default:
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, totalCapacity(candidates), target)
	}
}

func totalCapacity(cells []types.Cell) uint64 {
	var total uint64
	for _, c := range cells {
		total += c.Capacity
	}
	return total
}
