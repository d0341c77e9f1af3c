package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig_Validates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"bad granularity", func(c *Config) { c.Series.Granularity = "month" }},
		{"bad fill policy", func(c *Config) { c.Series.FillPolicy = "interpolate" }},
		{"season too small", func(c *Config) { c.Model.Season = 1 }},
		{"test fraction out of range", func(c *Config) { c.Model.TestFraction = 1.5 }},
		{"confidence out of range", func(c *Config) { c.Model.Confidence = 0 }},
		{"zero parallelism", func(c *Config) { c.Model.Parallelism = 0 }},
		{"baseline weight above one", func(c *Config) { c.Forecast.BaselineWeight = 1.2 }},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		c.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestLoadFromFile_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"series": {"granularity": "day"}, "forecast": {"cache_ttl": "30s"}}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Series.Granularity != "day" {
		t.Errorf("Expected granularity day, got %s", cfg.Series.Granularity)
	}
	if cfg.Forecast.CacheTTL.Duration != 30*time.Second {
		t.Errorf("Expected 30s cache TTL, got %v", cfg.Forecast.CacheTTL)
	}
	// Untouched settings keep their defaults.
	if cfg.Model.Season != 4 {
		t.Errorf("Expected default season 4, got %d", cfg.Model.Season)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LTOFC_GRANULARITY", "day")
	t.Setenv("LTOFC_SEASON", "7")
	t.Setenv("LTOFC_BASELINE_WEIGHT", "0.4")

	cfg := LoadFromEnv()
	if cfg.Series.Granularity != "day" {
		t.Errorf("Expected granularity day, got %s", cfg.Series.Granularity)
	}
	if cfg.Model.Season != 7 {
		t.Errorf("Expected season 7, got %d", cfg.Model.Season)
	}
	if cfg.Forecast.BaselineWeight != 0.4 {
		t.Errorf("Expected baseline weight 0.4, got %f", cfg.Forecast.BaselineWeight)
	}
}

func TestDuration_JSONRoundTrip(t *testing.T) {
	d := Duration{90 * time.Second}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"1m30s"` {
		t.Errorf("Expected \"1m30s\", got %s", data)
	}
	var back Duration
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Duration != d.Duration {
		t.Errorf("Round trip changed the value: %v", back)
	}
}
