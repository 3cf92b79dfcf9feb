package model

import "fmt"

type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

func (d Decision) Terminal() bool {
	return d == DecisionApproved || d == DecisionRejected
}

type SubstitutionProposal struct {
	ID               string   `json:"id"`
	NormalizedItemID string   `json:"normalized_item_id"`
	OriginalOfferID  string   `json:"original_offer_id"`
	SuggestedOfferID string   `json:"suggested_offer_id"`
	SuggestedEntryID string   `json:"suggested_entry_id"`
	VendorID         string   `json:"vendor_id"`
	PriceDelta       float64  `json:"price_delta"`
	LeadTimeDelta    int      `json:"lead_time_delta"`
	SavingsPercent   float64  `json:"savings_percent"`
	CompositeScore   float64  `json:"composite_score"`
	Decision         Decision `json:"decision"`
}

// Decide records the buyer's answer. Only a pending proposal can be decided
// and only approve or reject are accepted.
func (p *SubstitutionProposal) Decide(d Decision) error {
	if !d.Terminal() {
		return fmt.Errorf("%w: decision %q", ErrInvalidInput, d)
	}
	if p.Decision.Terminal() {
		return fmt.Errorf("%w: proposal %s is already %s", ErrDecisionFinal, p.ID, p.Decision)
	}
	p.Decision = d
	return nil
}

func (p SubstitutionProposal) Approved() bool {
	return p.Decision == DecisionApproved
}
