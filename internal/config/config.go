package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port           string   `toml:"port"`
	RateLimit      float64  `toml:"rate_limit"`
	RateBurst      int      `toml:"rate_burst"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type CatalogConfig struct {
	// Source is one of "sqlite", "graph" or "xlsx".
	Source      string `toml:"source"`
	RefreshCron string `toml:"refresh_cron"`
	XLSXPath    string `toml:"xlsx_path"`
}

type MatchingConfig struct {
	Threshold  float64 `toml:"threshold"`
	TieEpsilon float64 `toml:"tie_epsilon"`
}

type RankingWeights struct {
	Price    float64 `toml:"price"`
	LeadTime float64 `toml:"lead_time"`
	Stock    float64 `toml:"stock"`
	Rating   float64 `toml:"rating"`
}

func (w RankingWeights) Sum() float64 {
	return w.Price + w.LeadTime + w.Stock + w.Rating
}

type SubstitutionConfig struct {
	MaxProposals           int     `toml:"max_proposals"`
	PriceTolerancePercent  float64 `toml:"price_tolerance_percent"`
	LeadTimeToleranceDays  int     `toml:"lead_time_tolerance_days"`
	RequireInStock         bool    `toml:"require_in_stock"`
	IncludeRelatedCategory bool    `toml:"include_related_category"`
}

type ConcurrencyConfig struct {
	Workers int `toml:"workers"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

type Config struct {
	Server       ServerConfig       `toml:"server"`
	Catalog      CatalogConfig      `toml:"catalog"`
	Matching     MatchingConfig     `toml:"matching"`
	Ranking      RankingWeights     `toml:"ranking"`
	Substitution SubstitutionConfig `toml:"substitution"`
	Concurrency  ConcurrencyConfig  `toml:"concurrency"`
	Memgraph     MemgraphConfig     `toml:"memgraph"`
	SQLite       SQLiteConfig       `toml:"sqlite"`
}

// Default returns the configuration used when no file is present. The
// matching threshold and ranking weights are starting points meant to be
// tuned against real BOQ and vendor data.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8080",
			RateLimit:      20,
			RateBurst:      40,
			AllowedOrigins: []string{"*"},
		},
		Catalog: CatalogConfig{
			Source:      "sqlite",
			RefreshCron: "@every 5m",
		},
		Matching: MatchingConfig{
			Threshold:  0.5,
			TieEpsilon: 0.02,
		},
		Ranking: RankingWeights{
			Price:    0.4,
			LeadTime: 0.25,
			Stock:    0.25,
			Rating:   0.1,
		},
		Substitution: SubstitutionConfig{
			MaxProposals:          3,
			PriceTolerancePercent: 10,
			LeadTimeToleranceDays: 7,
			RequireInStock:        true,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 8,
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		SQLite: SQLiteConfig{
			Path: "data/catalog.db",
		},
	}
}

// Load reads a TOML file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads .env (if any), then the TOML file named by CONFIG_PATH
// (default config/config.toml, optional), then applies env overrides and
// validates the result.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "config/config.toml"
	}

	cfg, err := Load(path)
	if err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg = Default()
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := getenv("CATALOG_SOURCE"); v != "" {
		c.Catalog.Source = v
	}
	if v := getenv("CATALOG_REFRESH_CRON"); v != "" {
		c.Catalog.RefreshCron = v
	}
	if v := getenv("CATALOG_XLSX"); v != "" {
		c.Catalog.XLSXPath = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.SQLite.Path = v
	}
	if v := getenv("MEMGRAPH_URI"); v != "" {
		c.Memgraph.URI = v
	}
	if v := getenv("MEMGRAPH_USER"); v != "" {
		c.Memgraph.User = v
	}
	if v := getenv("MEMGRAPH_PASSWORD"); v != "" {
		c.Memgraph.Password = v
	}
	if v := getenv("MATCH_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MATCH_THRESHOLD: %w", err)
		}
		c.Matching.Threshold = f
	}
	if v := getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WORKERS: %w", err)
		}
		c.Concurrency.Workers = n
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matching.threshold %v outside [0,1]", c.Matching.Threshold))
	}
	if c.Matching.TieEpsilon < 0 {
		errs = append(errs, fmt.Errorf("matching.tie_epsilon %v is negative", c.Matching.TieEpsilon))
	}
	w := c.Ranking
	if w.Price < 0 || w.LeadTime < 0 || w.Stock < 0 || w.Rating < 0 {
		errs = append(errs, errors.New("ranking weights must be non-negative"))
	} else if w.Sum() <= 0 {
		errs = append(errs, errors.New("ranking weights must not all be zero"))
	}
	if c.Substitution.MaxProposals < 1 {
		errs = append(errs, fmt.Errorf("substitution.max_proposals %d must be at least 1", c.Substitution.MaxProposals))
	}
	if c.Substitution.PriceTolerancePercent < 0 || c.Substitution.LeadTimeToleranceDays < 0 {
		errs = append(errs, errors.New("substitution tolerances must be non-negative"))
	}
	if c.Concurrency.Workers < 1 {
		errs = append(errs, fmt.Errorf("concurrency.workers %d must be at least 1", c.Concurrency.Workers))
	}
	switch c.Catalog.Source {
	case "sqlite", "graph", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("unsupported catalog source: %s", c.Catalog.Source))
	}
	return errors.Join(errs...)
}
