// Package catalogtest provides a small construction-materials catalog for
// tests across the pipeline packages.
package catalogtest

import (
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/model"
)

const (
	EntryTMT   = "E-TMT"
	EntryAngle = "E-ANGLE"
	EntryOPC   = "E-OPC"
	EntryPPC   = "E-PPC"
	EntrySand  = "E-SAND"
	EntryBrick = "E-BRICK"
)

func F(v float64) *float64 { return &v }
func I(v int) *int         { return &v }
func B(v bool) *bool       { return &v }

func Entries() []model.CatalogEntry {
	return []model.CatalogEntry{
		{ID: EntryTMT, CanonicalName: "TMT Steel Bar Fe500", Category: "Steel", Aliases: []string{"TMT Rebar Fe500"}},
		{ID: EntryAngle, CanonicalName: "MS Angle 50x50x6", Category: "Steel"},
		{ID: EntryOPC, CanonicalName: "Ordinary Portland Cement 53 Grade", Category: "Cement", Aliases: []string{"OPC 53"}},
		{ID: EntryPPC, CanonicalName: "Portland Pozzolana Cement", Category: "Cement", Aliases: []string{"PPC Cement"}},
		{ID: EntrySand, CanonicalName: "River Sand", Category: "Aggregates"},
		{ID: EntryBrick, CanonicalName: "Red Clay Brick", Category: "Masonry"},
	}
}

func Offer(id, vendor, entry string, price float64, lead, stock int, rating float64) model.OfferRecord {
	return model.OfferRecord{
		OfferID:        id,
		VendorID:       vendor,
		VendorName:     VendorName(vendor),
		CatalogEntryID: entry,
		Price:          F(price),
		Unit:           "unit",
		Stock:          I(stock),
		LeadTimeDays:   I(lead),
		Rating:         F(rating),
		ApprovalStatus: "approved",
	}
}

func VendorName(id string) string {
	switch id {
	case "V-A":
		return "Alpha Steel"
	case "V-B":
		return "Bharat Metals"
	case "V-C":
		return "Coastal Traders"
	case "V-D":
		return "Deccan Supplies"
	}
	return id
}

func Offers() []model.OfferRecord {
	pending := Offer("O-4", "V-D", EntryTMT, 50, 1, 900, 5)
	pending.ApprovalStatus = "pending"
	missingPrice := Offer("O-99", "V-D", EntrySand, 1, 1, 1, 1)
	missingPrice.Price = nil

	return []model.OfferRecord{
		Offer("O-1", "V-A", EntryTMT, 100, 5, 50, 4),
		Offer("O-2", "V-B", EntryTMT, 120, 2, 0, 5),
		Offer("O-3", "V-C", EntryTMT, 90, 10, 20, 3),
		pending,
		Offer("O-10", "V-A", EntryOPC, 380, 3, 1000, 4),
		Offer("O-11", "V-B", EntryOPC, 365, 6, 400, 4.5),
		Offer("O-20", "V-C", EntryPPC, 340, 4, 800, 3.5),
		Offer("O-30", "V-A", EntrySand, 55, 1, 5000, 4),
		Offer("O-40", "V-B", EntryAngle, 72, 7, 300, 4),
		missingPrice,
	}
}

func Source() *catalog.StaticSource {
	return &catalog.StaticSource{Entries: Entries(), Offers: Offers()}
}

func Snapshot() *catalog.Snapshot {
	return catalog.Build("fixture", Entries(), Offers())
}

// Index returns an index with the fixture snapshot already installed.
func Index() *catalog.Index {
	ix := catalog.NewIndex()
	ix.Swap(Snapshot())
	return ix
}
