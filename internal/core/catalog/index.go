package catalog

import (
	"sync/atomic"

	"github.com/agenthands/boqmatch/internal/core/model"
)

// Index publishes the current snapshot. Swap replaces it wholesale so a
// reader holds either the old or the new snapshot, never a mix.
type Index struct {
	current atomic.Pointer[Snapshot]
	version atomic.Int64
}

func NewIndex() *Index {
	return &Index{}
}

// Swap installs s, stamps its version and returns the snapshot it replaced.
func (ix *Index) Swap(s *Snapshot) *Snapshot {
	s.Version = ix.version.Add(1)
	return ix.current.Swap(s)
}

// Snapshot returns the current snapshot, or ErrCatalogUnavailable when no
// catalog has been loaded yet.
func (ix *Index) Snapshot() (*Snapshot, error) {
	s := ix.current.Load()
	if s == nil {
		return nil, model.ErrCatalogUnavailable
	}
	return s, nil
}
