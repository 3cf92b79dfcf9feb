package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/boqmatch/internal/config"
	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/catalogtest"
	"github.com/agenthands/boqmatch/internal/importer"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "catalog.db")

	b, err := Open(ctx, cfg, discard())
	require.NoError(t, err)
	defer b.Close(ctx)
	require.NotNil(t, b.Sink)

	require.NoError(t, b.Sink.Save(ctx, catalogtest.Entries(), catalogtest.Offers()))
	snap, err := catalog.Load(ctx, b.Source)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.OfferCount())
}

func TestOpen_XLSX(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, importer.Write(path, catalogtest.Entries(), catalogtest.Offers()))

	cfg := config.Default()
	cfg.Catalog.Source = "xlsx"
	cfg.Catalog.XLSXPath = path

	b, err := Open(ctx, cfg, discard())
	require.NoError(t, err)
	assert.Nil(t, b.Sink)
	assert.NoError(t, b.Close(ctx))

	snap, err := catalog.Load(ctx, b.Source)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.EntryCount())
}

func TestOpen_Errors(t *testing.T) {
	cfg := config.Default()
	cfg.Catalog.Source = "xlsx"
	_, err := Open(context.Background(), cfg, discard())
	assert.ErrorContains(t, err, "xlsx_path")

	cfg.Catalog.Source = "csv"
	_, err = Open(context.Background(), cfg, discard())
	assert.ErrorContains(t, err, "unsupported")
}
