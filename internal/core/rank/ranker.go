// Package rank orders the vendor offers for a normalized item by a weighted
// composite of price, lead time, stock and rating.
package rank

import (
	"math"
	"sort"
	"strings"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
)

// scoreEpsilon absorbs float noise when comparing composite scores so that
// equal scores fall through to the deterministic tie-breaks.
const scoreEpsilon = 1e-9

type Ranker struct {
	Weights config.RankingWeights
}

func NewRanker(weights config.RankingWeights) *Ranker {
	return &Ranker{Weights: weights}
}

// Rank returns the approved offers for item best first. Unmatched items and
// entries without approved offers yield an empty list.
func (r *Ranker) Rank(snap *catalog.Snapshot, item model.NormalizedItem) []model.RankedOffer {
	if !item.Matched() {
		return []model.RankedOffer{}
	}
	return r.RankOffers(item, snap.OffersFor(item.CatalogEntryID))
}

// RankOffers scores an arbitrary candidate set for item. Min-max
// normalization of price and lead time is relative to this set.
func (r *Ranker) RankOffers(item model.NormalizedItem, offers []model.VendorOffer) []model.RankedOffer {
	ranked := make([]model.RankedOffer, 0, len(offers))
	if len(offers) == 0 {
		return ranked
	}

	minPrice, maxPrice := offers[0].Price, offers[0].Price
	minLead, maxLead := offers[0].LeadTimeDays, offers[0].LeadTimeDays
	for _, o := range offers[1:] {
		minPrice = math.Min(minPrice, o.Price)
		maxPrice = math.Max(maxPrice, o.Price)
		minLead = min(minLead, o.LeadTimeDays)
		maxLead = max(maxLead, o.LeadTimeDays)
	}

	for _, o := range offers {
		sub := model.SubScores{
			Price:    invertedMinMax(o.Price, minPrice, maxPrice),
			LeadTime: invertedMinMax(float64(o.LeadTimeDays), float64(minLead), float64(maxLead)),
			Stock:    stockScore(o, item.Quantity),
			Rating:   clamp01(o.Rating / 5),
		}
		ranked = append(ranked, model.RankedOffer{
			NormalizedItemID: item.ID(),
			OfferID:          o.OfferID,
			CompositeScore:   r.composite(sub),
			SubScores:        sub,
			IsAvailable:      o.InStock(),
			UnitMismatch:     item.UnitHint != "" && o.Unit != "" && !strings.EqualFold(item.UnitHint, o.Unit),
			Offer:            o,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if math.Abs(a.CompositeScore-b.CompositeScore) > scoreEpsilon {
			return a.CompositeScore > b.CompositeScore
		}
		if a.Offer.Price != b.Offer.Price {
			return a.Offer.Price < b.Offer.Price
		}
		if a.Offer.VendorID != b.Offer.VendorID {
			return a.Offer.VendorID < b.Offer.VendorID
		}
		return a.OfferID < b.OfferID
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// composite is the weighted mean of the sub-scores, so it stays in [0,1]
// whatever the weights sum to.
func (r *Ranker) composite(s model.SubScores) float64 {
	w := r.Weights
	total := w.Sum()
	if total <= 0 {
		return 0
	}
	return (w.Price*s.Price + w.LeadTime*s.LeadTime + w.Stock*s.Stock + w.Rating*s.Rating) / total
}

// invertedMinMax maps the lowest value to 1 and the highest to 0. When all
// candidates share a value every one of them scores 1.
func invertedMinMax(v, lo, hi float64) float64 {
	if hi == lo {
		return 1
	}
	return 1 - (v-lo)/(hi-lo)
}

// stockScore gives full credit when stock covers the requested quantity,
// half when some stock exists and none when the vendor is out or marked
// the offer unavailable.
func stockScore(o model.VendorOffer, quantity float64) float64 {
	switch {
	case !o.InStock():
		return 0
	case float64(o.Stock) >= quantity:
		return 1
	default:
		return 0.5
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
