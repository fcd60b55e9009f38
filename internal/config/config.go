package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level ledger.yaml configuration.
type Config struct {
	Storage       StorageConfig        `yaml:"storage"`
	Mailbox       MailboxConfig        `yaml:"mailbox"`
	Exchange      ExchangeConfig       `yaml:"exchange"`
	Subscriptions []SubscriptionConfig `yaml:"subscriptions,omitempty"`
	Notion        NotionConfig         `yaml:"notion"`
	Archive       ArchiveConfig        `yaml:"archive"`
}

// StorageConfig selects the ledger store backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // "memory" or "bigquery"
	Project string `yaml:"project,omitempty"`
	Dataset string `yaml:"dataset,omitempty"`
}

// MailboxConfig drives the email sync job.
type MailboxConfig struct {
	Dir  string `yaml:"dir"`
	Cron string `yaml:"cron"`
}

// ExchangeConfig drives the trade sync job. The job is only scheduled when
// API credentials are present.
type ExchangeConfig struct {
	Cron      string `yaml:"cron"`
	PageSize  int    `yaml:"page_size"`
	TradeType string `yaml:"trade_type"`
	APIKey    string `yaml:"api_key,omitempty"`
	APISecret string `yaml:"api_secret,omitempty"`
}

// Enabled reports whether the exchange credentials are configured.
func (c ExchangeConfig) Enabled() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// SubscriptionConfig declares one recurring synthetic charge.
type SubscriptionConfig struct {
	Origin      string `yaml:"origin"` // fixed short code, e.g. CURSOR
	Description string `yaml:"description"`
	Amount      string `yaml:"amount"`
	Currency    string `yaml:"currency"`
	DayOfMonth  int    `yaml:"day_of_month"`
	Cron        string `yaml:"cron"`
}

// NotionConfig enables the Notion batch notifier when a token is set.
type NotionConfig struct {
	Token      string `yaml:"token,omitempty"`
	DatabaseID string `yaml:"database_id,omitempty"`
}

// ArchiveConfig enables raw payload archiving when a bucket is set.
type ArchiveConfig struct {
	Bucket string `yaml:"bucket,omitempty"`
}

// Load reads a ledger.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new deployment.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{Backend: "memory"},
		Mailbox: MailboxConfig{Dir: "mailbox", Cron: "0 8 * * *"},
		Exchange: ExchangeConfig{
			Cron:      "30 8 * * *",
			PageSize:  50,
			TradeType: "SELL",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = "memory"
	}
	if c.Mailbox.Cron == "" {
		c.Mailbox.Cron = "0 8 * * *"
	}
	if c.Exchange.Cron == "" {
		c.Exchange.Cron = "30 8 * * *"
	}
	if c.Exchange.PageSize <= 0 {
		c.Exchange.PageSize = 50
	}
	if c.Exchange.TradeType == "" {
		c.Exchange.TradeType = "SELL"
	}
	for i := range c.Subscriptions {
		if c.Subscriptions[i].Cron == "" {
			c.Subscriptions[i].Cron = "0 9 * * *"
		}
		if c.Subscriptions[i].DayOfMonth == 0 {
			c.Subscriptions[i].DayOfMonth = 1
		}
	}
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "memory":
	case "bigquery":
		if c.Storage.Project == "" || c.Storage.Dataset == "" {
			return fmt.Errorf("bigquery backend requires storage.project and storage.dataset")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	for _, sub := range c.Subscriptions {
		if sub.Origin == "" {
			return fmt.Errorf("subscription with empty origin")
		}
		if sub.DayOfMonth < 1 || sub.DayOfMonth > 28 {
			return fmt.Errorf("subscription %s: day_of_month %d out of range 1..28", sub.Origin, sub.DayOfMonth)
		}
	}

	if (c.Exchange.APIKey == "") != (c.Exchange.APISecret == "") {
		return fmt.Errorf("exchange.api_key and exchange.api_secret must be set together")
	}

	if c.Notion.Token != "" && c.Notion.DatabaseID == "" {
		return fmt.Errorf("notion.token set but notion.database_id missing")
	}
	return nil
}
