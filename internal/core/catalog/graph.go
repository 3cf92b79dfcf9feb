package catalog

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/boqmatch/internal/core/model"
	"github.com/agenthands/boqmatch/internal/driver"
)

// GraphSource reads the catalog from a Memgraph/Neo4j database where vendors
// are linked to catalog entries by OFFERS relationships.
type GraphSource struct {
	Driver driver.GraphDriver
}

func NewGraphSource(d driver.GraphDriver) *GraphSource {
	return &GraphSource{Driver: d}
}

func (g *GraphSource) Name() string {
	return "graph"
}

func (g *GraphSource) Load(ctx context.Context) ([]model.CatalogEntry, []model.OfferRecord, error) {
	res, err := g.Driver.ExecuteQuery(ctx, driver.ListCatalogEntriesQuery, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	entries := make([]model.CatalogEntry, 0, len(res.Records))
	for _, rec := range res.Records {
		entries = append(entries, model.CatalogEntry{
			ID:            recordString(rec, "id"),
			CanonicalName: recordString(rec, "canonical_name"),
			Category:      recordString(rec, "category"),
			Aliases:       recordStrings(rec, "aliases"),
		})
	}

	res, err = g.Driver.ExecuteQuery(ctx, driver.ListVendorOffersQuery, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list vendor offers: %w", err)
	}
	offers := make([]model.OfferRecord, 0, len(res.Records))
	for _, rec := range res.Records {
		offers = append(offers, model.OfferRecord{
			OfferID:        recordString(rec, "offer_id"),
			VendorID:       recordString(rec, "vendor_id"),
			VendorName:     recordString(rec, "vendor_name"),
			Company:        recordString(rec, "company"),
			CatalogEntryID: recordString(rec, "catalog_entry_id"),
			Price:          recordFloat(rec, "price"),
			Unit:           recordString(rec, "unit"),
			Stock:          recordInt(rec, "stock"),
			LeadTimeDays:   recordInt(rec, "lead_time_days"),
			Rating:         recordFloat(rec, "rating"),
			Available:      recordBool(rec, "available"),
			ApprovalStatus: recordString(rec, "approval_status"),
		})
	}
	return entries, offers, nil
}

// Save merges entries and offers into the graph. Entries are written first
// so offer relationships can attach to them.
func (g *GraphSource) Save(ctx context.Context, entries []model.CatalogEntry, offers []model.OfferRecord) error {
	for _, e := range entries {
		aliases := e.Aliases
		if aliases == nil {
			aliases = []string{}
		}
		params := map[string]interface{}{
			"id":             e.ID,
			"canonical_name": e.CanonicalName,
			"category":       e.Category,
			"aliases":        aliases,
		}
		if _, err := g.Driver.ExecuteQuery(ctx, driver.SaveCatalogEntryQuery, params); err != nil {
			return fmt.Errorf("failed to save catalog entry %s: %w", e.ID, err)
		}
	}

	for _, o := range offers {
		params := map[string]interface{}{
			"offer_id":         o.OfferID,
			"vendor_id":        o.VendorID,
			"vendor_name":      o.VendorName,
			"company":          o.Company,
			"catalog_entry_id": o.CatalogEntryID,
			"price":            derefOrNil(o.Price),
			"unit":             o.Unit,
			"stock":            derefOrNil(o.Stock),
			"lead_time_days":   derefOrNil(o.LeadTimeDays),
			"rating":           derefOrNil(o.Rating),
			"available":        derefOrNil(o.Available),
			"approval_status":  o.ApprovalStatus,
		}
		if _, err := g.Driver.ExecuteQuery(ctx, driver.SaveVendorOfferQuery, params); err != nil {
			return fmt.Errorf("failed to save vendor offer %s: %w", o.OfferID, err)
		}
	}
	return nil
}

func derefOrNil[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func recordString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recordStrings(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Bolt returns integers as int64 and floats as float64; properties written
// by other tools may use either for prices and ratings.
func recordFloat(rec *neo4j.Record, key string) *float64 {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int64:
		f = float64(n)
	default:
		return nil
	}
	return &f
}

func recordInt(rec *neo4j.Record, key string) *int {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	var i int
	switch n := v.(type) {
	case int64:
		i = int(n)
	case float64:
		i = int(n)
	default:
		return nil
	}
	return &i
}

func recordBool(rec *neo4j.Record, key string) *bool {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}
