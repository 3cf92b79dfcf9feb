package model

// RawLineItem is one buyer-written BOQ line as handed over by the upload
// parser. It is never modified after ingestion.
type RawLineItem struct {
	ID       string  `json:"id"`
	RawText  string  `json:"raw_text"`
	Quantity float64 `json:"quantity"`
	UnitHint string  `json:"unit_hint,omitempty"`
}

// NormalizedItem is keyed by the raw line it came from. An empty
// CatalogEntryID with zero confidence means no catalog entry matched.
type NormalizedItem struct {
	RawLineItemID  string  `json:"raw_line_item_id"`
	CatalogEntryID string  `json:"catalog_entry_id,omitempty"`
	NormalizedName string  `json:"normalized_name"`
	Confidence     float64 `json:"confidence"`
	Quantity       float64 `json:"quantity"`
	UnitHint       string  `json:"unit_hint,omitempty"`
}

func (n NormalizedItem) ID() string {
	return n.RawLineItemID
}

func (n NormalizedItem) Matched() bool {
	return n.CatalogEntryID != ""
}
