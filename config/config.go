package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/stockpipe/market"
)

// Config is the complete toolkit configuration.
type Config struct {
	DataDir   string        `json:"data_dir" yaml:"data_dir"`
	Tickers   []string      `json:"tickers" yaml:"tickers"`
	Intervals []string      `json:"intervals" yaml:"intervals"`
	Harvest   HarvestConfig `json:"harvest" yaml:"harvest"`
}

// HarvestConfig contains provider parameters for the harvesters.
type HarvestConfig struct {
	Provider          string  `json:"provider" yaml:"provider"` // "yahoo" or "alphavantage"
	APIKey            string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Days              int     `json:"days" yaml:"days"`
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	TickerDelay       string  `json:"ticker_delay,omitempty" yaml:"ticker_delay,omitempty"` // e.g. "2s"
}

// ParseTickerDelay converts the delay string to time.Duration.
func (h HarvestConfig) ParseTickerDelay() (time.Duration, error) {
	if h.TickerDelay == "" {
		return 0, nil
	}
	return time.ParseDuration(h.TickerDelay)
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	for _, ticker := range c.Tickers {
		if !market.ValidTicker(ticker) {
			return fmt.Errorf("invalid ticker: %s", ticker)
		}
	}
	for _, interval := range c.Intervals {
		if !market.ValidInterval(interval) {
			return fmt.Errorf("invalid interval: %s", interval)
		}
	}
	if c.Harvest.Provider != "yahoo" && c.Harvest.Provider != "alphavantage" {
		return fmt.Errorf("harvest.provider must be 'yahoo' or 'alphavantage'")
	}
	if c.Harvest.Provider == "alphavantage" && c.Harvest.APIKey == "" {
		return fmt.Errorf("harvest.api_key required for alphavantage")
	}
	if c.Harvest.Days < 0 {
		return fmt.Errorf("harvest.days must not be negative")
	}
	if c.Harvest.Provider == "yahoo" && c.Harvest.Days%7 != 0 {
		return fmt.Errorf("harvest.days must be a multiple of 7 for yahoo")
	}
	if c.Harvest.RequestsPerSecond < 0 {
		return fmt.Errorf("harvest.requests_per_second must not be negative")
	}
	if _, err := c.Harvest.ParseTickerDelay(); err != nil {
		return fmt.Errorf("harvest.ticker_delay: %w", err)
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		DataDir:   "./data",
		Tickers:   market.DefaultIDXTickers,
		Intervals: []string{"1m", "5m"},
		Harvest: HarvestConfig{
			Provider:          "yahoo",
			Days:              28,
			RequestsPerSecond: 2,
			TickerDelay:       "2s",
		},
	}
}
