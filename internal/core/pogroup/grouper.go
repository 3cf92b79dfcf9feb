// Package pogroup partitions final item selections into one purchase order
// group per vendor.
package pogroup

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
)

type Request struct {
	Items []model.NormalizedItem `json:"items"`
	// Selections maps a normalized item id to the offer finally chosen for
	// it, after approved substitutions were applied.
	Selections map[string]string `json:"selections"`
	// Substitutions are the approved proposals behind any selection whose
	// offer belongs to a different catalog entry than the item's match.
	// Proposals are not stored anywhere, so the caller is trusted to pass
	// only proposals the buyer actually approved.
	Substitutions     []model.SubstitutionProposal `json:"substitutions,omitempty"`
	ExcludeOutOfStock bool                         `json:"exclude_out_of_stock,omitempty"`
}

type Result struct {
	Groups    []model.POGroup       `json:"groups"`
	Ungrouped []model.UngroupedItem `json:"ungrouped"`
}

type Grouper struct{}

func NewGrouper() *Grouper {
	return &Grouper{}
}

// Group re-validates every selection against snap, keys the surviving lines
// by vendor and totals them. Items that cannot be grouped are reported in
// Result.Ungrouped with the reason, never dropped. ErrNoGroups is returned
// together with the ungrouped list when nothing could be grouped.
func (g *Grouper) Group(snap *catalog.Snapshot, req Request) (Result, error) {
	res := Result{Groups: []model.POGroup{}, Ungrouped: []model.UngroupedItem{}}

	substituted := make(map[string]string)
	for _, p := range req.Substitutions {
		if p.Approved() {
			substituted[p.NormalizedItemID] = p.SuggestedOfferID
		}
	}

	known := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		known[item.ID()] = false
	}
	var unknown []string
	for id := range req.Selections {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		res.Ungrouped = append(res.Ungrouped, model.UngroupedItem{NormalizedItemID: id, Reason: model.ReasonUnknownItem})
	}

	groups := make(map[string]*model.POGroup)
	for _, item := range req.Items {
		id := item.ID()
		if known[id] {
			res.Ungrouped = append(res.Ungrouped, model.UngroupedItem{NormalizedItemID: id, Reason: model.ReasonDuplicateItem})
			continue
		}
		known[id] = true

		line, offer, reason := g.line(snap, item, req, substituted)
		if reason != "" {
			res.Ungrouped = append(res.Ungrouped, model.UngroupedItem{NormalizedItemID: id, Reason: reason})
			continue
		}

		grp, ok := groups[offer.VendorID]
		if !ok {
			grp = &model.POGroup{VendorID: offer.VendorID, VendorName: offer.VendorName, Company: offer.Company}
			groups[offer.VendorID] = grp
		}
		grp.LineItems = append(grp.LineItems, line)
	}

	if len(groups) == 0 {
		return res, fmt.Errorf("%w: all %d items are ungrouped", model.ErrNoGroups, len(res.Ungrouped))
	}

	for _, grp := range groups {
		sort.Slice(grp.LineItems, func(i, j int) bool {
			return grp.LineItems[i].NormalizedItemID < grp.LineItems[j].NormalizedItemID
		})
		grp.Total = decimal.Zero
		for _, l := range grp.LineItems {
			grp.Total = grp.Total.Add(l.LineTotal)
		}
		res.Groups = append(res.Groups, *grp)
	}
	sort.Slice(res.Groups, func(i, j int) bool { return res.Groups[i].VendorID < res.Groups[j].VendorID })
	return res, nil
}

func (g *Grouper) line(snap *catalog.Snapshot, item model.NormalizedItem, req Request, substituted map[string]string) (model.POLineItem, model.VendorOffer, model.UngroupedReason) {
	if !item.Matched() {
		return model.POLineItem{}, model.VendorOffer{}, model.ReasonNoMatch
	}
	if !(item.Quantity > 0) || math.IsInf(item.Quantity, 0) {
		return model.POLineItem{}, model.VendorOffer{}, model.ReasonBadQuantity
	}
	offerID := req.Selections[item.ID()]
	if offerID == "" {
		return model.POLineItem{}, model.VendorOffer{}, model.ReasonNoSelection
	}
	offer, ok := snap.Offer(offerID)
	if !ok {
		return model.POLineItem{}, model.VendorOffer{}, model.ReasonOfferNotFound
	}
	isSubstitute := substituted[item.ID()] == offerID
	if offer.CatalogEntryID != item.CatalogEntryID && !isSubstitute {
		return model.POLineItem{}, model.VendorOffer{}, model.ReasonEntryMismatch
	}
	if req.ExcludeOutOfStock && !offer.InStock() {
		return model.POLineItem{}, model.VendorOffer{}, model.ReasonOutOfStock
	}

	qty := decimal.NewFromFloat(item.Quantity)
	price := decimal.NewFromFloat(offer.Price)
	return model.POLineItem{
		NormalizedItemID: item.ID(),
		OfferID:          offer.OfferID,
		CatalogEntryID:   offer.CatalogEntryID,
		Quantity:         qty,
		UnitPrice:        price,
		LineTotal:        qty.Mul(price),
		OutOfStock:       !offer.InStock(),
		Substituted:      isSubstitute,
	}, offer, ""
}

// GrandTotal sums the group totals.
func (r Result) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, g := range r.Groups {
		total = total.Add(g.Total)
	}
	return total
}

// Verify checks the partition invariants: no empty group, each group total
// equal to its line totals, no item in two groups or both grouped and
// ungrouped, and the grand total equal to the sum of all line totals.
func (r Result) Verify() error {
	seen := make(map[string]string)
	lines := decimal.Zero
	for _, g := range r.Groups {
		if len(g.LineItems) == 0 {
			return fmt.Errorf("group %s has no line items", g.VendorID)
		}
		sum := decimal.Zero
		for _, l := range g.LineItems {
			if prev, dup := seen[l.NormalizedItemID]; dup {
				return fmt.Errorf("item %s appears in groups %s and %s", l.NormalizedItemID, prev, g.VendorID)
			}
			seen[l.NormalizedItemID] = g.VendorID
			if !l.LineTotal.Equal(l.Quantity.Mul(l.UnitPrice)) {
				return fmt.Errorf("item %s line total %s != %s x %s", l.NormalizedItemID, l.LineTotal, l.Quantity, l.UnitPrice)
			}
			sum = sum.Add(l.LineTotal)
		}
		if !sum.Equal(g.Total) {
			return fmt.Errorf("group %s total %s != sum of lines %s", g.VendorID, g.Total, sum)
		}
		lines = lines.Add(sum)
	}
	for _, u := range r.Ungrouped {
		if vendor, ok := seen[u.NormalizedItemID]; ok && u.Reason != model.ReasonDuplicateItem {
			return fmt.Errorf("item %s is both grouped under %s and ungrouped", u.NormalizedItemID, vendor)
		}
	}
	if !lines.Equal(r.GrandTotal()) {
		return fmt.Errorf("grand total %s != sum of lines %s", r.GrandTotal(), lines)
	}
	return nil
}
