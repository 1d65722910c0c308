package types

// Cell is one unit of chain state. A cell is live until some later
// transaction consumes it; consumption sets ConsumedAt instead of deleting
// the record, so rollback can revive the cell by clearing the field.
type Cell struct {
	OutPoint  OutPoint `json:"out_point"`
	Capacity  uint64   `json:"capacity"`
	Lock      Script   `json:"lock"`
	Type      *Script  `json:"type,omitempty"`
	DataHash  Hash     `json:"data_hash"`
	CreatedAt uint64   `json:"created_at_block"`
	// ConsumedAt is the height of the consuming block, nil while live.
	ConsumedAt *uint64 `json:"consumed_at_block,omitempty"`
}

// IsLive returns true if the cell has not been consumed.
func (c *Cell) IsLive() bool {
	return c.ConsumedAt == nil
}
