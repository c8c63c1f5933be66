package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultWSURL is the GDAX (Coinbase Pro) websocket feed endpoint.
	DefaultWSURL = "wss://ws-feed.pro.coinbase.com"

	// DefaultExpirySec is the staleness threshold applied to both feeds when
	// the config does not set one.
	DefaultExpirySec = 20
)

// Config holds the full application configuration, loaded from YAML and then
// overridden from the environment.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Feed struct {
		WSURL     string `yaml:"ws_url"`
		ProductID string `yaml:"product_id"` // e.g., "ETH-USD"
		ExpirySec int    `yaml:"expiry_sec"` // shared staleness threshold

		// Optional per-feed overrides; fall back to ExpirySec when zero.
		TradeExpirySec int `yaml:"trade_expiry_sec"`
		BookExpirySec  int `yaml:"book_expiry_sec"`
	} `yaml:"feed"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Feed.WSURL == "" {
		cfg.Feed.WSURL = DefaultWSURL
	}
	if cfg.Feed.ExpirySec == 0 {
		cfg.Feed.ExpirySec = DefaultExpirySec
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Feed.WSURL, "ws://") && !strings.HasPrefix(c.Feed.WSURL, "wss://") {
		return fmt.Errorf("invalid feed WS URL: %s", c.Feed.WSURL)
	}
	if c.Feed.ProductID == "" {
		return fmt.Errorf("a feed product id is required")
	}
	if c.Feed.ExpirySec <= 0 {
		return fmt.Errorf("expiry threshold must be positive")
	}
	if c.Feed.TradeExpirySec < 0 || c.Feed.BookExpirySec < 0 {
		return fmt.Errorf("per-feed expiry overrides must not be negative")
	}
	return nil
}

// TradeExpiry returns the staleness threshold for the trade feed.
func (c *Config) TradeExpiry() time.Duration {
	if c.Feed.TradeExpirySec > 0 {
		return time.Duration(c.Feed.TradeExpirySec) * time.Second
	}
	return time.Duration(c.Feed.ExpirySec) * time.Second
}

// BookExpiry returns the staleness threshold for the order book feed.
func (c *Config) BookExpiry() time.Duration {
	if c.Feed.BookExpirySec > 0 {
		return time.Duration(c.Feed.BookExpirySec) * time.Second
	}
	return time.Duration(c.Feed.ExpirySec) * time.Second
}

// overrideWithEnv overrides config values from the environment when set.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("GDAX_WS_URL"); url != "" {
		cfg.Feed.WSURL = url
	}
	if product := os.Getenv("GDAX_PRODUCT_ID"); product != "" {
		cfg.Feed.ProductID = product
	}
}
