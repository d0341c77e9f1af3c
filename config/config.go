// Package config holds the forecasting engine configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Duration wraps time.Duration to provide human-readable JSON encoding ("5m", "1h30m").
type Duration struct {
	time.Duration
}

// MarshalJSON implements the json.Marshaler interface
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config represents the complete engine configuration
type Config struct {
	Store    StoreConfig    `json:"store"`
	Series   SeriesConfig   `json:"series"`
	Model    ModelConfig    `json:"model"`
	Forecast ForecastConfig `json:"forecast"`
}

// StoreConfig contains model artifact store settings
type StoreConfig struct {
	Path string `json:"path"`
}

// SeriesConfig contains series construction settings
type SeriesConfig struct {
	Granularity string `json:"granularity"` // "day" or "week"
	FillPolicy  string `json:"fill_policy"` // "zero" or "forward"
}

// ModelConfig contains parameter search and fitting settings
type ModelConfig struct {
	Season          int     `json:"season"`            // seasonal period length (7 daily, 4 weekly)
	MinSearchLength int     `json:"min_search_length"` // below this, skip search and use the default order
	MaxP            int     `json:"max_p"`
	MaxQ            int     `json:"max_q"`
	MaxSeasonalP    int     `json:"max_seasonal_p"`
	MaxSeasonalQ    int     `json:"max_seasonal_q"`
	TestFraction    float64 `json:"test_fraction"` // held-out tail fraction for validation
	Confidence      float64 `json:"confidence"`    // prediction interval level
	CVFolds         int     `json:"cv_folds"`
	Parallelism     int     `json:"parallelism"` // concurrent candidate fits during search
}

// ForecastConfig contains forecast serving settings
type ForecastConfig struct {
	DefaultHorizon int      `json:"default_horizon"`
	BaselineWeight float64  `json:"baseline_weight"` // 0 disables seasonal-naive blending
	CacheTTL       Duration `json:"cache_ttl"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: "./data/models",
		},
		Series: SeriesConfig{
			Granularity: "week",
			FillPolicy:  "zero",
		},
		Model: ModelConfig{
			Season:          4,
			MinSearchLength: 20,
			MaxP:            3,
			MaxQ:            3,
			MaxSeasonalP:    1,
			MaxSeasonalQ:    1,
			TestFraction:    0.2,
			Confidence:      0.95,
			CVFolds:         3,
			Parallelism:     4,
		},
		Forecast: ForecastConfig{
			DefaultHorizon: 12,
			BaselineWeight: 0,
			CacheTTL:       Duration{5 * time.Minute},
		},
	}
}

// LoadFromFile loads configuration from a JSON file, layered over defaults
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if path := os.Getenv("LTOFC_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if gran := os.Getenv("LTOFC_GRANULARITY"); gran != "" {
		cfg.Series.Granularity = gran
	}
	if fill := os.Getenv("LTOFC_FILL_POLICY"); fill != "" {
		cfg.Series.FillPolicy = fill
	}
	if season := os.Getenv("LTOFC_SEASON"); season != "" {
		if val, err := strconv.Atoi(season); err == nil {
			cfg.Model.Season = val
		}
	}
	if folds := os.Getenv("LTOFC_CV_FOLDS"); folds != "" {
		if val, err := strconv.Atoi(folds); err == nil {
			cfg.Model.CVFolds = val
		}
	}
	if horizon := os.Getenv("LTOFC_DEFAULT_HORIZON"); horizon != "" {
		if val, err := strconv.Atoi(horizon); err == nil {
			cfg.Forecast.DefaultHorizon = val
		}
	}
	if weight := os.Getenv("LTOFC_BASELINE_WEIGHT"); weight != "" {
		if val, err := strconv.ParseFloat(weight, 64); err == nil {
			cfg.Forecast.BaselineWeight = val
		}
	}

	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if c.Series.Granularity != "day" && c.Series.Granularity != "week" {
		return fmt.Errorf("granularity must be \"day\" or \"week\", got %q", c.Series.Granularity)
	}
	if c.Series.FillPolicy != "zero" && c.Series.FillPolicy != "forward" {
		return fmt.Errorf("fill policy must be \"zero\" or \"forward\", got %q", c.Series.FillPolicy)
	}
	if c.Model.Season < 2 {
		return fmt.Errorf("season must be at least 2")
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0, 1)")
	}
	if c.Model.Confidence <= 0 || c.Model.Confidence >= 1 {
		return fmt.Errorf("confidence must be in (0, 1)")
	}
	if c.Model.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Forecast.BaselineWeight < 0 || c.Forecast.BaselineWeight > 1 {
		return fmt.Errorf("baseline weight must be in [0, 1]")
	}
	return nil
}

// EnsureDataDirectories creates the artifact store directory
func (c *Config) EnsureDataDirectories() error {
	if err := os.MkdirAll(c.Store.Path, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Store.Path, err)
	}
	return nil
}
