package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 0.5, cfg.Matching.Threshold)
	assert.InDelta(t, 1.0, cfg.Ranking.Sum(), 1e-9)
	assert.Equal(t, 3, cfg.Substitution.MaxProposals)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[matching]
threshold = 0.6

[ranking]
price = 0.7
lead_time = 0.1
stock = 0.1
rating = 0.1

[catalog]
source = "graph"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.6, cfg.Matching.Threshold)
	assert.Equal(t, 0.7, cfg.Ranking.Price)
	assert.Equal(t, "graph", cfg.Catalog.Source)
	// untouched sections keep their defaults
	assert.Equal(t, 0.02, cfg.Matching.TieEpsilon)
	assert.Equal(t, 8, cfg.Concurrency.Workers)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[matching\nthreshold = "), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PORT":            "9090",
		"CATALOG_SOURCE":  "xlsx",
		"CATALOG_XLSX":    "seed.xlsx",
		"MATCH_THRESHOLD": "0.55",
		"WORKERS":         "2",
		"MEMGRAPH_URI":    "bolt://graph:7687",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "xlsx", cfg.Catalog.Source)
	assert.Equal(t, "seed.xlsx", cfg.Catalog.XLSXPath)
	assert.Equal(t, 0.55, cfg.Matching.Threshold)
	assert.Equal(t, 2, cfg.Concurrency.Workers)
	assert.Equal(t, "bolt://graph:7687", cfg.Memgraph.URI)

	bad := Default()
	err := bad.ApplyEnv(func(k string) string {
		if k == "WORKERS" {
			return "many"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Ranking = RankingWeights{}
	cfg.Matching.Threshold = 1.5
	cfg.Catalog.Source = "ftp"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "threshold")
	assert.Contains(t, err.Error(), "must not all be zero")
	assert.Contains(t, err.Error(), "unsupported catalog source")

	neg := Default()
	neg.Ranking.Price = -0.1
	assert.ErrorContains(t, neg.Validate(), "non-negative")
}
