// Package substitute proposes cheaper or faster alternatives to a buyer's
// chosen offer and applies the buyer's decisions on them.
package substitute

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/core/rank"
)

type Suggester struct {
	Ranker *rank.Ranker
	Config config.SubstitutionConfig
	// UUIDGenerator names new proposals; tests replace it for stable ids.
	UUIDGenerator func() string
}

func NewSuggester(ranker *rank.Ranker, cfg config.SubstitutionConfig) *Suggester {
	return &Suggester{
		Ranker:        ranker,
		Config:        cfg,
		UUIDGenerator: func() string { return uuid.New().String() },
	}
}

// Suggest re-ranks the selected offer's catalog entry (plus the rest of its
// category when configured) and keeps alternatives that are cheaper or
// faster without being worse on the other axis by more than the tolerance.
// At most MaxProposals proposals are returned, best composite score first.
// An empty result is not an error.
func (s *Suggester) Suggest(snap *catalog.Snapshot, item model.NormalizedItem, selectedOfferID string) ([]model.SubstitutionProposal, error) {
	selected, ok := snap.Offer(selectedOfferID)
	if !ok {
		return nil, fmt.Errorf("%w: selected offer %q is not an approved offer", model.ErrInvalidInput, selectedOfferID)
	}

	ranked := s.Ranker.RankOffers(item, s.candidates(snap, selected))

	proposals := []model.SubstitutionProposal{}
	for _, r := range ranked {
		if len(proposals) >= s.Config.MaxProposals {
			break
		}
		if r.OfferID == selected.OfferID || !s.acceptable(selected, r.Offer) {
			continue
		}

		priceDelta := selected.Price - r.Offer.Price
		savings := 0.0
		if priceDelta > 0 {
			savings = priceDelta / selected.Price * 100
		}
		proposals = append(proposals, model.SubstitutionProposal{
			ID:               s.UUIDGenerator(),
			NormalizedItemID: item.ID(),
			OriginalOfferID:  selected.OfferID,
			SuggestedOfferID: r.OfferID,
			SuggestedEntryID: r.Offer.CatalogEntryID,
			VendorID:         r.Offer.VendorID,
			PriceDelta:       priceDelta,
			LeadTimeDelta:    selected.LeadTimeDays - r.Offer.LeadTimeDays,
			SavingsPercent:   savings,
			CompositeScore:   r.CompositeScore,
			Decision:         model.DecisionPending,
		})
	}
	return proposals, nil
}

func (s *Suggester) candidates(snap *catalog.Snapshot, selected model.VendorOffer) []model.VendorOffer {
	offers := snap.OffersFor(selected.CatalogEntryID)
	if !s.Config.IncludeRelatedCategory {
		return offers
	}
	entry, ok := snap.Entry(selected.CatalogEntryID)
	if !ok || entry.Category == "" {
		return offers
	}
	for _, related := range snap.EntriesInCategory(entry.Category) {
		if related.ID != entry.ID {
			offers = append(offers, snap.OffersFor(related.ID)...)
		}
	}
	return offers
}

// acceptable reports whether candidate is strictly better than selected on
// price or lead time and within tolerance on the other.
func (s *Suggester) acceptable(selected, candidate model.VendorOffer) bool {
	cheaper := candidate.Price < selected.Price
	faster := candidate.LeadTimeDays < selected.LeadTimeDays
	if !cheaper && !faster {
		return false
	}
	if s.Config.RequireInStock && !candidate.InStock() {
		return false
	}
	if !cheaper {
		increase := (candidate.Price - selected.Price) / selected.Price * 100
		if increase > s.Config.PriceTolerancePercent {
			return false
		}
	}
	if !faster && candidate.LeadTimeDays-selected.LeadTimeDays > s.Config.LeadTimeToleranceDays {
		return false
	}
	return true
}
