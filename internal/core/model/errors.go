package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrNoGroups           = errors.New("no purchase order groups")
	ErrDecisionFinal      = errors.New("decision already final")
	ErrUnknownProposal    = errors.New("unknown proposal")
)

// ItemError ties a per-item failure to the item it belongs to. It never
// aborts a batch; callers collect these next to the successful results.
type ItemError struct {
	ItemID string `json:"item_id"`
	Err    error  `json:"-"`
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s: %v", e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func (e *ItemError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ItemID string `json:"item_id"`
		Error  string `json:"error"`
	}{e.ItemID, e.Err.Error()})
}
