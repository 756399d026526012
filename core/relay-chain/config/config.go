// Package config loads node settings from coded defaults, an optional YAML
// file and EARLYBIRDS_* environment variables, in that order.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/storage"
	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/token"
	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "EARLYBIRDS_"

// DefaultOwner is the first development account of a local test network.
const DefaultOwner = "0x627306090abaB3A6e1400e9345bC60c78a8BEf57"

type Config struct {
	ListenAddr     string   `yaml:"listen_addr" env:"LISTEN_ADDR"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`

	StorageBackend string `yaml:"storage_backend" env:"STORAGE_BACKEND"`
	DatabasePath   string `yaml:"database_path" env:"DATABASE_PATH"`

	JournalPath       string `yaml:"journal_path" env:"JOURNAL_PATH"`
	JournalMaxSizeMB  int    `yaml:"journal_max_size_mb" env:"JOURNAL_MAX_SIZE_MB"`
	JournalMaxBackups int    `yaml:"journal_max_backups" env:"JOURNAL_MAX_BACKUPS"`
	JournalMaxAgeDays int    `yaml:"journal_max_age_days" env:"JOURNAL_MAX_AGE_DAYS"`
	JournalCompress   bool   `yaml:"journal_compress" env:"JOURNAL_COMPRESS"`

	// Owner deploys the token and the contract at genesis.
	Owner string `yaml:"owner" env:"OWNER"`
	// Token amounts are whole WORM.
	InitialSupply uint64 `yaml:"initial_supply" env:"INITIAL_SUPPLY"`
	Funding       uint64 `yaml:"funding" env:"FUNDING"`
	Reward        uint64 `yaml:"reward" env:"REWARD"`

	LogLevel          string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat         string `yaml:"log_format" env:"LOG_FORMAT"`
	EnableColoredLogs bool   `yaml:"enable_colored_logs" env:"ENABLE_COLORED_LOGS"`
}

func Default() *Config {
	return &Config{
		ListenAddr:        ":8080",
		AllowedOrigins:    []string{"*"},
		StorageBackend:    storage.BackendBolt,
		DatabasePath:      "./data/earlybirds.db",
		JournalPath:       "./logs/transactions.jsonl",
		JournalMaxSizeMB:  100,
		JournalMaxBackups: 5,
		JournalMaxAgeDays: 30,
		Owner:             DefaultOwner,
		InitialSupply:     1000000000,
		Funding:           1000000,
		Reward:            100,
		LogLevel:          "info",
		LogFormat:         "text",
		EnableColoredLogs: true,
	}
}

// Load applies path (if not empty) and the environment over the defaults and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	switch strings.ToLower(c.StorageBackend) {
	case storage.BackendBolt, storage.BackendLevelDB:
		if c.DatabasePath == "" {
			return fmt.Errorf("database_path is required for the %s backend", c.StorageBackend)
		}
	case storage.BackendMemory:
	default:
		return fmt.Errorf("unknown storage_backend %q", c.StorageBackend)
	}
	if !common.IsHexAddress(c.Owner) || common.HexToAddress(c.Owner) == (common.Address{}) {
		return fmt.Errorf("owner %q is not a valid address", c.Owner)
	}
	if c.InitialSupply == 0 {
		return fmt.Errorf("initial_supply must be > 0")
	}
	if c.Funding > c.InitialSupply {
		return fmt.Errorf("funding %d exceeds initial_supply %d", c.Funding, c.InitialSupply)
	}
	if c.Reward == 0 {
		return fmt.Errorf("reward must be > 0")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) OwnerAddress() common.Address {
	return common.HexToAddress(c.Owner)
}

func (c *Config) SupplyWei() *big.Int  { return token.ToWei(c.InitialSupply) }
func (c *Config) FundingWei() *big.Int { return token.ToWei(c.Funding) }
func (c *Config) RewardWei() *big.Int  { return token.ToWei(c.Reward) }

// NewLogger builds the process logger from the logging settings.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   c.EnableColoredLogs,
			FullTimestamp: true,
		})
	}
	return logger
}
