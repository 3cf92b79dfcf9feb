package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/catalogtest"
	"github.com/agenthands/boqmatch/internal/core/model"
)

func defaultRanker() *Ranker {
	return NewRanker(config.Default().Ranking)
}

func tmtItem(qty float64) model.NormalizedItem {
	return model.NormalizedItem{RawLineItemID: "L1", CatalogEntryID: catalogtest.EntryTMT, Confidence: 0.62, Quantity: qty}
}

// Offers O-1 (100, 5d, 50, 4.0), O-2 (120, 2d, 0, 5.0), O-3 (90, 10d, 20, 3.0)
// for a quantity of 10:
//
//	O-1: 0.4*(2/3) + 0.25*(5/8) + 0.25*1 + 0.1*0.8 = 0.7529
//	O-3: 0.4*1     + 0.25*0     + 0.25*1 + 0.1*0.6 = 0.7100
//	O-2: 0.4*0     + 0.25*1     + 0.25*0 + 0.1*1.0 = 0.3500
func TestRank_HandComputedOrder(t *testing.T) {
	ranked := defaultRanker().Rank(catalogtest.Snapshot(), tmtItem(10))
	require.Len(t, ranked, 3)

	assert.Equal(t, "O-1", ranked[0].OfferID)
	assert.Equal(t, "O-3", ranked[1].OfferID)
	assert.Equal(t, "O-2", ranked[2].OfferID)

	assert.InDelta(t, 0.7529, ranked[0].CompositeScore, 0.0001)
	assert.InDelta(t, 0.71, ranked[1].CompositeScore, 0.0001)
	assert.InDelta(t, 0.35, ranked[2].CompositeScore, 0.0001)

	for i, r := range ranked {
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, "L1", r.NormalizedItemID)
	}
	assert.False(t, ranked[2].IsAvailable, "out of stock offers are kept but flagged")
	assert.True(t, ranked[0].IsAvailable)
}

func TestRank_PartialStockTier(t *testing.T) {
	ranked := defaultRanker().Rank(catalogtest.Snapshot(), tmtItem(30))
	byID := map[string]model.RankedOffer{}
	for _, r := range ranked {
		byID[r.OfferID] = r
	}
	assert.Equal(t, 1.0, byID["O-1"].SubScores.Stock)
	assert.Equal(t, 0.5, byID["O-3"].SubScores.Stock)
	assert.Equal(t, 0.0, byID["O-2"].SubScores.Stock)
}

func TestRank_NoMatchOrNoOffers(t *testing.T) {
	snap := catalogtest.Snapshot()
	r := defaultRanker()

	unmatched := r.Rank(snap, model.NormalizedItem{RawLineItemID: "L1", Quantity: 1})
	assert.NotNil(t, unmatched)
	assert.Empty(t, unmatched)

	bricks := r.Rank(snap, model.NormalizedItem{RawLineItemID: "L2", CatalogEntryID: catalogtest.EntryBrick, Quantity: 1})
	assert.Empty(t, bricks)
}

func TestRank_EqualPriceAndLeadOrdersByRating(t *testing.T) {
	entries := []model.CatalogEntry{{ID: "E", CanonicalName: "Cement", Category: "Cement"}}
	offers := []model.OfferRecord{
		catalogtest.Offer("o-low", "V-1", "E", 300, 4, 100, 2.5),
		catalogtest.Offer("o-top", "V-2", "E", 300, 4, 100, 4.9),
		catalogtest.Offer("o-mid", "V-3", "E", 300, 4, 100, 3.7),
	}
	snap := catalog.Build("t", entries, offers)
	item := model.NormalizedItem{RawLineItemID: "L1", CatalogEntryID: "E", Quantity: 10}

	first := defaultRanker().Rank(snap, item)
	require.Len(t, first, 3)
	assert.Equal(t, []string{"o-top", "o-mid", "o-low"}, offerIDs(first))

	// stable across repeated runs
	for i := 0; i < 5; i++ {
		assert.Equal(t, offerIDs(first), offerIDs(defaultRanker().Rank(snap, item)))
	}
}

func TestRank_TieBreaksOnPriceThenVendor(t *testing.T) {
	// price weight zero: identical composites, tie-breaks decide
	r := NewRanker(config.RankingWeights{Stock: 1})
	item := model.NormalizedItem{RawLineItemID: "L1", CatalogEntryID: "E", Quantity: 1}
	offers := []model.VendorOffer{
		{OfferID: "c", VendorID: "V-2", Price: 10, Stock: 5, Available: true},
		{OfferID: "b", VendorID: "V-1", Price: 10, Stock: 5, Available: true},
		{OfferID: "a", VendorID: "V-9", Price: 8, Stock: 5, Available: true},
	}

	ranked := r.RankOffers(item, offers)
	assert.Equal(t, []string{"a", "b", "c"}, offerIDs(ranked))
}

func TestRank_UnitMismatchFlag(t *testing.T) {
	item := tmtItem(1)
	item.UnitHint = "MT"
	ranked := defaultRanker().RankOffers(item, []model.VendorOffer{
		{OfferID: "x", VendorID: "V", Price: 1, Unit: "mt", Stock: 1, Available: true},
		{OfferID: "y", VendorID: "V", Price: 1, Unit: "kg", Stock: 1, Available: true},
	})
	flags := map[string]bool{}
	for _, r := range ranked {
		flags[r.OfferID] = r.UnitMismatch
	}
	assert.False(t, flags["x"])
	assert.True(t, flags["y"])
}

func TestRank_UnavailableOfferScoresNoStock(t *testing.T) {
	withdrawn := catalogtest.Offer("O-1", "V-A", catalogtest.EntryTMT, 100, 5, 50, 4)
	withdrawn.Available = catalogtest.B(false)
	snap := catalog.Build("t", catalogtest.Entries(), []model.OfferRecord{
		withdrawn,
		catalogtest.Offer("O-3", "V-C", catalogtest.EntryTMT, 90, 10, 20, 3),
	})

	ranked := defaultRanker().Rank(snap, tmtItem(10))
	require.Len(t, ranked, 2)
	byID := map[string]model.RankedOffer{}
	for _, r := range ranked {
		byID[r.OfferID] = r
	}

	o1 := byID["O-1"]
	assert.False(t, o1.IsAvailable, "stock on hand does not help an offer marked unavailable")
	assert.Equal(t, 0.0, o1.SubScores.Stock)
	assert.True(t, byID["O-3"].IsAvailable)
	assert.Equal(t, 1.0, byID["O-3"].SubScores.Stock)
}

func TestComposite_NormalizesBySum(t *testing.T) {
	r := NewRanker(config.RankingWeights{Price: 2, LeadTime: 2})
	score := r.composite(model.SubScores{Price: 1, LeadTime: 0.5, Stock: 1, Rating: 1})
	assert.InDelta(t, 0.75, score, 1e-9)
}

func offerIDs(ranked []model.RankedOffer) []string {
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		ids[i] = r.OfferID
	}
	return ids
}
