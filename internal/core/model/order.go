package model

import "github.com/shopspring/decimal"

type POLineItem struct {
	NormalizedItemID string          `json:"normalized_item_id"`
	OfferID          string          `json:"offer_id"`
	CatalogEntryID   string          `json:"catalog_entry_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	LineTotal        decimal.Decimal `json:"line_total"`
	OutOfStock       bool            `json:"out_of_stock,omitempty"`
	Substituted      bool            `json:"substituted,omitempty"`
}

// POGroup holds every selected line sold by one vendor. Total is always the
// sum of the line totals.
type POGroup struct {
	VendorID   string          `json:"vendor_id"`
	VendorName string          `json:"vendor_name"`
	Company    string          `json:"company,omitempty"`
	LineItems  []POLineItem    `json:"line_items"`
	Total      decimal.Decimal `json:"total"`
}

type UngroupedReason string

const (
	ReasonNoMatch       UngroupedReason = "no_match"
	ReasonBadQuantity   UngroupedReason = "invalid_quantity"
	ReasonNoSelection   UngroupedReason = "no_selection"
	ReasonOfferNotFound UngroupedReason = "offer_not_approved"
	ReasonEntryMismatch UngroupedReason = "entry_mismatch"
	ReasonOutOfStock    UngroupedReason = "out_of_stock"
	ReasonUnknownItem   UngroupedReason = "unknown_item"
	ReasonDuplicateItem UngroupedReason = "duplicate_item"
)

type UngroupedItem struct {
	NormalizedItemID string          `json:"normalized_item_id"`
	Reason           UngroupedReason `json:"reason"`
}
