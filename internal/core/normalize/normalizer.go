// Package normalize maps raw BOQ lines onto catalog entries.
package normalize

import (
	"fmt"
	"math"

	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/core/textnorm"
)

const (
	DefaultThreshold  = 0.5
	DefaultTieEpsilon = 0.02
)

type Normalizer struct {
	// Threshold is the lowest similarity accepted as a match.
	Threshold float64
	// TieEpsilon is how close to the best score a candidate must be to
	// take part in the tie-break.
	TieEpsilon float64
}

func NewNormalizer(threshold, tieEpsilon float64) *Normalizer {
	return &Normalizer{
		Threshold:  threshold,
		TieEpsilon: tieEpsilon,
	}
}

// Normalize produces exactly one NormalizedItem for a valid raw line. Lines
// that match nothing well enough come back unmatched with zero confidence;
// only a non-positive quantity or text that is empty once normalized is an
// error.
func (n *Normalizer) Normalize(snap *catalog.Snapshot, raw model.RawLineItem) (model.NormalizedItem, error) {
	if raw.Quantity <= 0 || math.IsNaN(raw.Quantity) || math.IsInf(raw.Quantity, 0) {
		return model.NormalizedItem{}, fmt.Errorf("%w: quantity %v must be positive", model.ErrInvalidInput, raw.Quantity)
	}
	text := textnorm.Prepare(raw.RawText)
	if text.Empty() {
		return model.NormalizedItem{}, fmt.Errorf("%w: raw text is empty", model.ErrInvalidInput)
	}

	item := model.NormalizedItem{
		RawLineItemID:  raw.ID,
		NormalizedName: text.Joined,
		Quantity:       raw.Quantity,
		UnitHint:       raw.UnitHint,
	}

	best, ok := n.pick(snap, snap.LookupByText(raw.RawText))
	if !ok {
		return item, nil
	}
	item.CatalogEntryID = best.Entry.ID
	item.NormalizedName = best.Entry.CanonicalName
	item.Confidence = best.Similarity
	return item, nil
}

// pick applies the threshold and the tie-break to matches, which arrive
// sorted best first. Among candidates within TieEpsilon of the best score
// the entry with more approved offers wins, then the smaller canonical name.
func (n *Normalizer) pick(snap *catalog.Snapshot, matches []catalog.Match) (catalog.Match, bool) {
	if len(matches) == 0 || matches[0].Similarity < n.Threshold {
		return catalog.Match{}, false
	}

	floor := matches[0].Similarity - n.TieEpsilon
	best := matches[0]
	bestOffers := snap.ApprovedOfferCount(best.Entry.ID)
	for _, m := range matches[1:] {
		if m.Similarity < floor || m.Similarity < n.Threshold {
			break
		}
		offers := snap.ApprovedOfferCount(m.Entry.ID)
		if offers > bestOffers || (offers == bestOffers && m.Entry.CanonicalName < best.Entry.CanonicalName) {
			best, bestOffers = m, offers
		}
	}
	return best, true
}
