// Package backend opens the catalog storage named in the configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/driver"
	"github.com/agenthands/boqmatch/internal/importer"
	"github.com/agenthands/boqmatch/internal/store"
)

type Backend struct {
	Source catalog.Source
	// Sink is nil for read-only backends such as a workbook.
	Sink  catalog.Sink
	close func(ctx context.Context) error
}

func (b *Backend) Close(ctx context.Context) error {
	if b.close == nil {
		return nil
	}
	return b.close(ctx)
}

// Open connects to the backend selected by cfg.Catalog.Source.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.Catalog.Source {
	case "sqlite":
		s, err := store.New(cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
		}
		return &Backend{Source: s, Sink: s, close: func(context.Context) error { return s.Close() }}, nil

	case "graph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to graph catalog: %w", err)
		}
		if err := d.BuildIndices(ctx); err != nil {
			logger.Warn("failed to build graph indices", "error", err)
		}
		g := catalog.NewGraphSource(d)
		return &Backend{Source: g, Sink: g, close: d.Close}, nil

	case "xlsx":
		if cfg.Catalog.XLSXPath == "" {
			return nil, errors.New("catalog.xlsx_path is required for the xlsx source")
		}
		return &Backend{Source: importer.NewXLSXSource(cfg.Catalog.XLSXPath)}, nil
	}
	return nil, fmt.Errorf("unsupported catalog source: %s", cfg.Catalog.Source)
}
