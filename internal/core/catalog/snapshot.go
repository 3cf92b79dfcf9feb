// Package catalog holds the read-only, searchable view of approved catalog
// entries and vendor offers that every pipeline stage runs against.
package catalog

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/core/textnorm"
)

// Match is one LookupByText hit.
type Match struct {
	Entry      model.CatalogEntry `json:"entry"`
	Similarity float64            `json:"similarity"`
}

// Issue records an offer or entry record rejected at the catalog boundary.
type Issue struct {
	RecordID string `json:"record_id"`
	Reason   string `json:"reason"`
}

type indexedEntry struct {
	entry model.CatalogEntry
	names []textnorm.Text
}

// Snapshot is immutable once built. Pipelines take one snapshot at the start
// of a computation and never observe a later refresh.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Source   string
	Issues   []Issue

	entries    []indexedEntry
	entryByID  map[string]int
	byCategory map[string][]int
	offers     map[string][]model.VendorOffer
	offerByID  map[string]model.VendorOffer
}

// Build validates raw records and indexes what survives. Offer records that
// miss a price or stock value, or carry out-of-range values, are excluded and
// reported as issues rather than trusted. Offers that are not approved are
// dropped silently: they are not eligible anywhere in the core.
func Build(source string, entries []model.CatalogEntry, records []model.OfferRecord) *Snapshot {
	s := &Snapshot{
		LoadedAt:   time.Now().UTC(),
		Source:     source,
		entryByID:  make(map[string]int, len(entries)),
		byCategory: make(map[string][]int),
		offers:     make(map[string][]model.VendorOffer),
		offerByID:  make(map[string]model.VendorOffer),
	}

	for _, e := range entries {
		if e.ID == "" || strings.TrimSpace(e.CanonicalName) == "" {
			s.Issues = append(s.Issues, Issue{RecordID: e.ID, Reason: "entry missing id or canonical name"})
			continue
		}
		if _, dup := s.entryByID[e.ID]; dup {
			s.Issues = append(s.Issues, Issue{RecordID: e.ID, Reason: "duplicate entry id"})
			continue
		}
		ie := indexedEntry{entry: e, names: []textnorm.Text{textnorm.Prepare(e.CanonicalName)}}
		for _, alias := range e.Aliases {
			if t := textnorm.Prepare(alias); !t.Empty() {
				ie.names = append(ie.names, t)
			}
		}
		idx := len(s.entries)
		s.entries = append(s.entries, ie)
		s.entryByID[e.ID] = idx
		cat := categoryKey(e.Category)
		s.byCategory[cat] = append(s.byCategory[cat], idx)
	}

	for _, rec := range records {
		offer, err := s.validateOffer(rec)
		if err != nil {
			s.Issues = append(s.Issues, Issue{RecordID: rec.OfferID, Reason: err.Error()})
			continue
		}
		if !offer.Approved() {
			continue
		}
		s.offers[offer.CatalogEntryID] = append(s.offers[offer.CatalogEntryID], offer)
		s.offerByID[offer.OfferID] = offer
	}

	for id := range s.offers {
		list := s.offers[id]
		sort.Slice(list, func(i, j int) bool { return list[i].OfferID < list[j].OfferID })
	}
	return s
}

func (s *Snapshot) validateOffer(rec model.OfferRecord) (model.VendorOffer, error) {
	switch {
	case rec.OfferID == "":
		return model.VendorOffer{}, fmt.Errorf("%w: offer id missing", model.ErrInvalidInput)
	case rec.VendorID == "":
		return model.VendorOffer{}, fmt.Errorf("%w: vendor id missing", model.ErrInvalidInput)
	case rec.Price == nil:
		return model.VendorOffer{}, fmt.Errorf("%w: price missing", model.ErrInvalidInput)
	case rec.Stock == nil:
		return model.VendorOffer{}, fmt.Errorf("%w: stock missing", model.ErrInvalidInput)
	case !(*rec.Price > 0) || math.IsInf(*rec.Price, 0):
		return model.VendorOffer{}, fmt.Errorf("%w: price %v must be positive and finite", model.ErrInvalidInput, *rec.Price)
	case *rec.Stock < 0:
		return model.VendorOffer{}, fmt.Errorf("%w: stock %d is negative", model.ErrInvalidInput, *rec.Stock)
	}
	if _, dup := s.offerByID[rec.OfferID]; dup {
		return model.VendorOffer{}, fmt.Errorf("%w: duplicate offer id", model.ErrInvalidInput)
	}
	if _, ok := s.entryByID[rec.CatalogEntryID]; !ok {
		return model.VendorOffer{}, fmt.Errorf("%w: unknown catalog entry %q", model.ErrInvalidInput, rec.CatalogEntryID)
	}

	offer := model.VendorOffer{
		OfferID:        rec.OfferID,
		VendorID:       rec.VendorID,
		VendorName:     rec.VendorName,
		Company:        rec.Company,
		CatalogEntryID: rec.CatalogEntryID,
		Price:          *rec.Price,
		Unit:           rec.Unit,
		Stock:          *rec.Stock,
		ApprovalStatus: model.ApprovalStatus(strings.ToLower(strings.TrimSpace(rec.ApprovalStatus))),
	}
	if rec.LeadTimeDays != nil {
		if *rec.LeadTimeDays < 0 {
			return model.VendorOffer{}, fmt.Errorf("%w: lead time %d is negative", model.ErrInvalidInput, *rec.LeadTimeDays)
		}
		offer.LeadTimeDays = *rec.LeadTimeDays
	}
	if rec.Rating != nil {
		if !(*rec.Rating >= 0 && *rec.Rating <= 5) {
			return model.VendorOffer{}, fmt.Errorf("%w: rating %v outside 0-5", model.ErrInvalidInput, *rec.Rating)
		}
		offer.Rating = *rec.Rating
	}
	offer.Available = offer.Stock > 0
	if rec.Available != nil {
		offer.Available = *rec.Available && offer.Stock > 0
	}
	return offer, nil
}

// LookupByText scores every entry against text and returns the entries with
// a positive similarity, best first. An entry scores as its best-matching
// canonical name or alias.
func (s *Snapshot) LookupByText(text string) []Match {
	query := textnorm.Prepare(text)
	if query.Empty() {
		return nil
	}

	var matches []Match
	for _, ie := range s.entries {
		best := 0.0
		for _, name := range ie.names {
			if sim := textnorm.Similarity(query, name); sim > best {
				best = sim
			}
		}
		if best > 0 {
			matches = append(matches, Match{Entry: ie.entry, Similarity: best})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Entry.CanonicalName < matches[j].Entry.CanonicalName
	})
	return matches
}

// OffersFor returns the approved offers of an entry. The slice is a copy.
func (s *Snapshot) OffersFor(entryID string) []model.VendorOffer {
	list := s.offers[entryID]
	out := make([]model.VendorOffer, len(list))
	copy(out, list)
	return out
}

func (s *Snapshot) ApprovedOfferCount(entryID string) int {
	return len(s.offers[entryID])
}

func (s *Snapshot) EntriesInCategory(category string) []model.CatalogEntry {
	idxs := s.byCategory[categoryKey(category)]
	out := make([]model.CatalogEntry, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, s.entries[i].entry)
	}
	return out
}

func (s *Snapshot) Entry(id string) (model.CatalogEntry, bool) {
	i, ok := s.entryByID[id]
	if !ok {
		return model.CatalogEntry{}, false
	}
	return s.entries[i].entry, true
}

// Offer looks up an approved offer by id.
func (s *Snapshot) Offer(offerID string) (model.VendorOffer, bool) {
	o, ok := s.offerByID[offerID]
	return o, ok
}

func (s *Snapshot) EntryCount() int {
	return len(s.entries)
}

func (s *Snapshot) OfferCount() int {
	return len(s.offerByID)
}

func categoryKey(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
