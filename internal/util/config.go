package util

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigPathEnvVar   = "STOCKALLOC_CONFIG"
	FallbackRateEnvVar = "STOCKALLOC_FALLBACK_RATE"
	DefaultConfigPath  = "stockalloc.yaml"
)

type Config struct {
	BaseCurrency  string `yaml:"baseCurrency"`
	LocalCurrency string `yaml:"localCurrency"`
	// FallbackExchangeRate is used when the live rate cannot be fetched.
	// 0 disables the fallback.
	FallbackExchangeRate float64 `yaml:"fallbackExchangeRate"`

	Defaults FundamentalDefaults `yaml:"defaults"`
	Fetch    FetchConfig         `yaml:"fetch"`
	Scoring  ScoringConfig       `yaml:"scoring"`

	Universe []UniverseEntry `yaml:"universe"`
}

// FundamentalDefaults are substituted for fundamentals the collaborator
// could not provide. They bias the ranking against instruments with
// missing data.
type FundamentalDefaults struct {
	MissingROE float64 `yaml:"missingRoe"`
	MissingPER float64 `yaml:"missingPer"`
}

type FetchConfig struct {
	BatchSize     int           `yaml:"batchSize"`
	BatchInterval time.Duration `yaml:"batchInterval"`
	// TimeBudget caps the total time spent on lookups; symbols not reached
	// in time are treated as unavailable
	TimeBudget       time.Duration `yaml:"timeBudget"`
	BreakerThreshold uint32        `yaml:"breakerThreshold"`
}

type ScoringConfig struct {
	RoeWeight    float64 `yaml:"roeWeight"`
	MaxPositions int     `yaml:"maxPositions"`
	Mode         string  `yaml:"mode"`
	Expression   string  `yaml:"expression"`
}

// UniverseEntry is one instrument to score. The optional values form a
// static quote used in offline mode.
type UniverseEntry struct {
	Symbol          string   `yaml:"symbol"`
	Price           *float64 `yaml:"price,omitempty"`
	ReturnOnEquity  *float64 `yaml:"roe,omitempty"`
	PriceToEarnings *float64 `yaml:"per,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		BaseCurrency:         "USD",
		LocalCurrency:        "JPY",
		FallbackExchangeRate: 152.80,
		Defaults: FundamentalDefaults{
			MissingROE: 0,
			MissingPER: 100,
		},
		Fetch: FetchConfig{
			BatchSize:        5,
			BatchInterval:    time.Second,
			TimeBudget:       30 * time.Second,
			BreakerThreshold: 3,
		},
		Scoring: ScoringConfig{
			RoeWeight:    0.6,
			MaxPositions: 5,
			Mode:         "ScoreWeighted",
		},
		Universe: []UniverseEntry{
			{Symbol: "NVDA", Price: FloatPointer(185.30)},
			{Symbol: "AMD", Price: FloatPointer(250.15)},
			{Symbol: "AVGO", Price: FloatPointer(356.66)},
			{Symbol: "ASML", Price: FloatPointer(940.00)},
			{Symbol: "SMCI", Price: FloatPointer(48.66)},
		},
	}
}

// LoadConfig reads .env, then the yaml file at path (or STOCKALLOC_CONFIG,
// or stockalloc.yaml). A missing file yields the defaults; env vars are
// applied last.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	explicit := path != ""
	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
		explicit = path != ""
	}
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := DefaultConfig()
	f, err := os.ReadFile(path)
	if err != nil && !(errors.Is(err, os.ErrNotExist) && !explicit) {
		return nil, fmt.Errorf("could not open config %s: %w", path, err)
	}
	if err == nil {
		if err := ParseConfig(f, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv(FallbackRateEnvVar); v != "" {
		rate, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", FallbackRateEnvVar, v, err)
		}
		cfg.FallbackExchangeRate = rate
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseConfig overlays yaml bytes onto cfg.
func ParseConfig(b []byte, cfg *Config) error {
	return yaml.Unmarshal(b, cfg)
}

func (c Config) Validate() error {
	if c.BaseCurrency == "" || c.LocalCurrency == "" {
		return fmt.Errorf("baseCurrency and localCurrency are required")
	}
	if c.FallbackExchangeRate < 0 {
		return fmt.Errorf("fallbackExchangeRate must be >= 0, got %f", c.FallbackExchangeRate)
	}
	if c.Fetch.BatchSize < 1 {
		return fmt.Errorf("fetch.batchSize must be >= 1, got %d", c.Fetch.BatchSize)
	}
	if c.Fetch.TimeBudget <= 0 {
		return fmt.Errorf("fetch.timeBudget must be positive")
	}
	seen := map[string]bool{}
	for _, u := range c.Universe {
		symbol := strings.ToUpper(strings.TrimSpace(u.Symbol))
		if symbol == "" {
			return fmt.Errorf("universe entry with empty symbol")
		}
		if seen[symbol] {
			return fmt.Errorf("duplicate universe symbol %s", symbol)
		}
		seen[symbol] = true
	}
	return nil
}

func (c Config) UniverseSymbols() []string {
	out := make([]string, 0, len(c.Universe))
	for _, u := range c.Universe {
		out = append(out, strings.ToUpper(strings.TrimSpace(u.Symbol)))
	}
	return out
}
