package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/boqmatch/internal/core/catalog"
	"github.com/agenthands/boqmatch/internal/core/catalogtest"
	"github.com/agenthands/boqmatch/internal/importer"
	"github.com/agenthands/boqmatch/internal/store"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_ImportsIntoSQLite(t *testing.T) {
	dir := t.TempDir()
	xlsx := filepath.Join(dir, "catalog.xlsx")
	db := filepath.Join(dir, "catalog.db")
	require.NoError(t, importer.Write(xlsx, catalogtest.Entries(), catalogtest.Offers()))

	t.Setenv("CONFIG_PATH", "")
	t.Setenv("SQLITE_PATH", db)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-xlsx", xlsx, "-target", "sqlite"}, &out, discard()))
	assert.Contains(t, out.String(), "read 6 entries and 10 offers, 8 usable approved offers")
	assert.Contains(t, out.String(), "rejected O-99")

	s, err := store.New(db)
	require.NoError(t, err)
	defer s.Close()
	snap, err := catalog.Load(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 8, snap.OfferCount())
}

func TestRun_DryRunAndTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.xlsx")

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-template", tmpl}, &out, discard()))

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"-xlsx", tmpl, "-dry-run"}, &out, discard()))
	assert.Contains(t, out.String(), "read 0 entries and 0 offers")
}

func TestRun_RequiresWorkbook(t *testing.T) {
	err := run(context.Background(), nil, io.Discard, discard())
	assert.ErrorContains(t, err, "-xlsx is required")
}
