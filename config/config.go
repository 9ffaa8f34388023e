// Package config provides configuration for the repository scraper.
package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the research repository host.
	DefaultBaseURL = "https://scale.stanford.edu"
	// DefaultRepositoryPath is the search endpoint under the base URL.
	// Pagination hrefs are resolved against it.
	DefaultRepositoryPath = "/genai/repository"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL        string
	RepositoryPath string
	SeedURLs       []string

	Parallelism int
	Delay       time.Duration
	RandomDelay time.Duration
	Timeout     time.Duration
	UserAgent   string

	OutputFile   string
	OutputFormat string // csv, json, or dual

	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int

	MetricsAddr string
	Verbose     bool
}

// DefaultConfig returns the defaults for the GSE GenAI repository,
// including the two seed searches: instructional materials in K12
// teaching, and randomized controlled trials in secondary education.
func DefaultConfig() *Config {
	repo := DefaultBaseURL + DefaultRepositoryPath
	return &Config{
		BaseURL:        DefaultBaseURL,
		RepositoryPath: DefaultRepositoryPath,
		SeedURLs: []string{
			repo + "?search_api_fulltext=&application%5B42%5D=42&benefits%5B34%5D=34&benefits%5B36%5D=36&benefits%5B35%5D=35",
			repo + "?search_api_fulltext=&benefits%5B36%5D=36&benefits%5B35%5D=35&study_design%5B55%5D=55",
		},
		Parallelism:        1,
		Delay:              0,
		RandomDelay:        0,
		Timeout:            10 * time.Second,
		UserAgent:          "gse-genai-scraper/1.0 (research repository metadata collector)",
		OutputFile:         "data/clean/gse_genai_articles.csv",
		OutputFormat:       "csv",
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      10000,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.RepositoryPath == "" || c.RepositoryPath[0] != '/' {
		return fmt.Errorf("repository path must start with /")
	}

	if len(c.SeedURLs) == 0 {
		return fmt.Errorf("at least one seed URL is required")
	}
	for i, seed := range c.SeedURLs {
		parsed, err := url.Parse(seed)
		if err != nil {
			return fmt.Errorf("invalid seed URL [%d]: %w", i, err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("seed URL [%d] must be absolute", i)
		}
	}

	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}

	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}

	return nil
}
