package model

// SubScores are the normalized [0,1] criteria a composite score is built
// from.
type SubScores struct {
	Price    float64 `json:"price"`
	LeadTime float64 `json:"lead_time"`
	Stock    float64 `json:"stock"`
	Rating   float64 `json:"rating"`
}

// RankedOffer is request scoped and must be recomputed for every request so
// it reflects current price and stock.
type RankedOffer struct {
	NormalizedItemID string      `json:"normalized_item_id"`
	OfferID          string      `json:"offer_id"`
	Rank             int         `json:"rank"`
	CompositeScore   float64     `json:"composite_score"`
	SubScores        SubScores   `json:"sub_scores"`
	IsAvailable      bool        `json:"is_available"`
	UnitMismatch     bool        `json:"unit_mismatch,omitempty"`
	Offer            VendorOffer `json:"offer"`
}
