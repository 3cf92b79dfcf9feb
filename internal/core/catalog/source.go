package catalog

import (
	"context"
	"fmt"

	"github.com/agenthands/boqmatch/internal/core/model"
)

// Source produces a consistent read of the catalog. Implementations live
// next to their storage: the SQLite store, the graph source below and the
// static source used by tests and demos.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]model.CatalogEntry, []model.OfferRecord, error)
}

// Sink persists catalog data. The SQLite store and the graph source both
// accept imports through it.
type Sink interface {
	Save(ctx context.Context, entries []model.CatalogEntry, offers []model.OfferRecord) error
}

// Load reads src and builds a snapshot from it. A read failure is reported
// as ErrCatalogUnavailable so callers can treat it as fatal for the batch.
func Load(ctx context.Context, src Source) (*Snapshot, error) {
	entries, records, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrCatalogUnavailable, src.Name(), err)
	}
	return Build(src.Name(), entries, records), nil
}

type StaticSource struct {
	Entries []model.CatalogEntry
	Offers  []model.OfferRecord
}

func (s *StaticSource) Name() string {
	return "static"
}

func (s *StaticSource) Load(ctx context.Context) ([]model.CatalogEntry, []model.OfferRecord, error) {
	return s.Entries, s.Offers, nil
}
