package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if len(cfg.SeedURLs) != 2 {
		t.Fatalf("seed urls = %d, want 2", len(cfg.SeedURLs))
	}
	for i, seed := range cfg.SeedURLs {
		if !strings.HasPrefix(seed, DefaultBaseURL+DefaultRepositoryPath+"?") {
			t.Fatalf("seed[%d] = %q, want a %s search URL", i, seed, DefaultRepositoryPath)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty base URL",
			mutate:  func(c *Config) { c.BaseURL = "" },
			wantErr: "base URL",
		},
		{
			name:    "base URL without host",
			mutate:  func(c *Config) { c.BaseURL = "/relative/path" },
			wantErr: "host",
		},
		{
			name:    "repository path without leading slash",
			mutate:  func(c *Config) { c.RepositoryPath = "genai/repository" },
			wantErr: "repository path must start with /",
		},
		{
			name:    "no seeds",
			mutate:  func(c *Config) { c.SeedURLs = nil },
			wantErr: "at least one seed URL is required",
		},
		{
			name:    "relative seed",
			mutate:  func(c *Config) { c.SeedURLs = []string{"/genai/repository?page=0"} },
			wantErr: "must be absolute",
		},
		{
			name:    "zero parallelism",
			mutate:  func(c *Config) { c.Parallelism = 0 },
			wantErr: "parallelism must be positive",
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Delay = -time.Second },
			wantErr: "delay cannot be negative",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: "timeout must be positive",
		},
		{
			name:    "empty user agent",
			mutate:  func(c *Config) { c.UserAgent = "" },
			wantErr: "user agent cannot be empty",
		},
		{
			name:    "empty output file",
			mutate:  func(c *Config) { c.OutputFile = "" },
			wantErr: "output file cannot be empty",
		},
		{
			name:    "unknown output format",
			mutate:  func(c *Config) { c.OutputFormat = "xml" },
			wantErr: "output format must be csv, json, or dual",
		},
		{
			name:    "zero buffer",
			mutate:  func(c *Config) { c.PipelineBufferSize = 0 },
			wantErr: "pipeline buffer size must be positive",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: "batch size must be positive",
		},
		{
			name:    "zero dedupe size",
			mutate:  func(c *Config) { c.DedupeMaxSize = 0 },
			wantErr: "dedupe max size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validate: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %q, want substring %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestEnvString(t *testing.T) {
	if _, ok := EnvString("SCRAPER_TEST_UNSET"); ok {
		t.Fatalf("unset variable reported as set")
	}

	t.Setenv("SCRAPER_TEST_OUTPUT", "out.csv")
	value, ok := EnvString("SCRAPER_TEST_OUTPUT")
	if !ok || value != "out.csv" {
		t.Fatalf("EnvString = (%q, %v), want (out.csv, true)", value, ok)
	}
}

func TestEnvInt(t *testing.T) {
	if _, ok, err := EnvInt("SCRAPER_TEST_UNSET"); ok || err != nil {
		t.Fatalf("unset variable: ok=%v err=%v", ok, err)
	}

	t.Setenv("SCRAPER_TEST_PARALLEL", "4")
	value, ok, err := EnvInt("SCRAPER_TEST_PARALLEL")
	if err != nil || !ok || value != 4 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (4, true, nil)", value, ok, err)
	}

	t.Setenv("SCRAPER_TEST_PARALLEL", "not-a-number")
	if _, _, err := EnvInt("SCRAPER_TEST_PARALLEL"); err == nil {
		t.Fatalf("expected error for non-integer value")
	}
}
