package substitute

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/catalogtest"
	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/core/rank"
)

func newSuggester(mutate func(*config.SubstitutionConfig)) *Suggester {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg.Substitution)
	}
	s := NewSuggester(rank.NewRanker(cfg.Ranking), cfg.Substitution)
	n := 0
	s.UUIDGenerator = func() string {
		n++
		return fmt.Sprintf("prop-%d", n)
	}
	return s
}

func item(entry string) model.NormalizedItem {
	return model.NormalizedItem{RawLineItemID: "L1", CatalogEntryID: entry, Quantity: 10}
}

func TestSuggest_CheaperWithinLeadTolerance(t *testing.T) {
	props, err := newSuggester(nil).Suggest(catalogtest.Snapshot(), item(catalogtest.EntryTMT), "O-1")
	require.NoError(t, err)

	// O-2 is faster but out of stock and 20% dearer
	require.Len(t, props, 1)
	p := props[0]
	assert.Equal(t, "prop-1", p.ID)
	assert.Equal(t, "L1", p.NormalizedItemID)
	assert.Equal(t, "O-1", p.OriginalOfferID)
	assert.Equal(t, "O-3", p.SuggestedOfferID)
	assert.Equal(t, 10.0, p.PriceDelta)
	assert.InDelta(t, 10.0, p.SavingsPercent, 1e-9)
	assert.Equal(t, -5, p.LeadTimeDelta)
	assert.Equal(t, model.DecisionPending, p.Decision)
}

func TestSuggest_SkipsUnavailableCandidate(t *testing.T) {
	withdrawn := catalogtest.Offer("O-3", "V-C", catalogtest.EntryTMT, 90, 10, 20, 3)
	withdrawn.Available = catalogtest.B(false)
	snap := catalog.Build("t", catalogtest.Entries(), []model.OfferRecord{
		catalogtest.Offer("O-1", "V-A", catalogtest.EntryTMT, 100, 5, 50, 4),
		withdrawn,
	})

	props, err := newSuggester(nil).Suggest(snap, item(catalogtest.EntryTMT), "O-1")
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestSuggest_FasterButDearer(t *testing.T) {
	s := newSuggester(func(c *config.SubstitutionConfig) {
		c.RequireInStock = false
		c.PriceTolerancePercent = 25
	})
	props, err := s.Suggest(catalogtest.Snapshot(), item(catalogtest.EntryTMT), "O-1")
	require.NoError(t, err)
	require.Len(t, props, 2)

	byOffer := map[string]model.SubstitutionProposal{}
	for _, p := range props {
		byOffer[p.SuggestedOfferID] = p
	}
	faster := byOffer["O-2"]
	assert.Equal(t, -20.0, faster.PriceDelta)
	assert.Equal(t, 0.0, faster.SavingsPercent, "savings are zero when the price is not lower")
	assert.Equal(t, 3, faster.LeadTimeDelta)
}

func TestSuggest_NothingBetter(t *testing.T) {
	// O-3 is the cheapest; O-1 is faster but 11% dearer
	props, err := newSuggester(nil).Suggest(catalogtest.Snapshot(), item(catalogtest.EntryTMT), "O-3")
	require.NoError(t, err)
	assert.NotNil(t, props)
	assert.Empty(t, props)

	relaxed := newSuggester(func(c *config.SubstitutionConfig) { c.PriceTolerancePercent = 15 })
	props, err = relaxed.Suggest(catalogtest.Snapshot(), item(catalogtest.EntryTMT), "O-3")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "O-1", props[0].SuggestedOfferID)
	assert.Equal(t, 5, props[0].LeadTimeDelta)
}

func TestSuggest_RelatedCategory(t *testing.T) {
	snap := catalogtest.Snapshot()

	sameEntry, err := newSuggester(nil).Suggest(snap, item(catalogtest.EntryOPC), "O-10")
	require.NoError(t, err)
	require.Len(t, sameEntry, 1)
	assert.Equal(t, "O-11", sameEntry[0].SuggestedOfferID)

	related := newSuggester(func(c *config.SubstitutionConfig) { c.IncludeRelatedCategory = true })
	props, err := related.Suggest(snap, item(catalogtest.EntryOPC), "O-10")
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, "O-20", props[0].SuggestedOfferID)
	assert.Equal(t, catalogtest.EntryPPC, props[0].SuggestedEntryID)
	assert.Equal(t, "O-11", props[1].SuggestedOfferID)
	assert.Greater(t, props[0].CompositeScore, props[1].CompositeScore)
}

func TestSuggest_TopN(t *testing.T) {
	s := newSuggester(func(c *config.SubstitutionConfig) {
		c.IncludeRelatedCategory = true
		c.MaxProposals = 1
	})
	props, err := s.Suggest(catalogtest.Snapshot(), item(catalogtest.EntryOPC), "O-10")
	require.NoError(t, err)
	require.Len(t, props, 1)
	assert.Equal(t, "O-20", props[0].SuggestedOfferID)
}

func TestSuggest_InvalidSelection(t *testing.T) {
	s := newSuggester(nil)
	snap := catalogtest.Snapshot()

	_, err := s.Suggest(snap, item(catalogtest.EntryTMT), "O-404")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	// pending offers are not selectable
	_, err = s.Suggest(snap, item(catalogtest.EntryTMT), "O-4")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
