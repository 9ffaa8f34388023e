package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML layout. Zero values mean "keep the
// default", so a partial file only overrides what it names.
type fileConfig struct {
	BaseURL        string   `yaml:"base_url"`
	RepositoryPath string   `yaml:"repository_path"`
	SeedURLs       []string `yaml:"seed_urls"`
	Parallelism    int      `yaml:"parallelism"`
	TimeoutSec     int      `yaml:"timeout_sec"`
	UserAgent      string   `yaml:"user_agent"`
	Output         struct {
		File   string `yaml:"file"`
		Format string `yaml:"format"`
	} `yaml:"output"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// LoadFile reads a YAML config file and applies it over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := DefaultConfig()
	if fc.BaseURL != "" {
		cfg.BaseURL = fc.BaseURL
	}
	if fc.RepositoryPath != "" {
		cfg.RepositoryPath = fc.RepositoryPath
	}
	if len(fc.SeedURLs) > 0 {
		cfg.SeedURLs = fc.SeedURLs
	}
	if fc.Parallelism != 0 {
		cfg.Parallelism = fc.Parallelism
	}
	if fc.TimeoutSec != 0 {
		cfg.Timeout = time.Duration(fc.TimeoutSec) * time.Second
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.Output.File != "" {
		cfg.OutputFile = fc.Output.File
	}
	if fc.Output.Format != "" {
		cfg.OutputFormat = fc.Output.Format
	}
	if fc.MetricsAddr != "" {
		cfg.MetricsAddr = fc.MetricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}
