package index

import "errors"

// Index errors are fatal: they signal divergence between the local index and
// the node's chain view, and indexing halts rather than continuing past them.
var (
	// ErrDanglingConsumption is returned when a block consumes a cell the
	// index does not know as live, which means either an out-of-order
	// application or a node data integrity fault.
	ErrDanglingConsumption = errors.New("index: consumption of unknown or dead cell")

	// ErrDiscontinuousChain is returned when a block does not extend the
	// indexed tip (wrong height or parent hash).
	ErrDiscontinuousChain = errors.New("index: block does not extend indexed tip")
)
