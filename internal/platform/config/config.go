// Package config loads process configuration from POLICY_REGISTRY_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"policyregistry/pkg/domain"
	strs "policyregistry/pkg/platform/strings"
)

// Prefix is prepended to every environment variable name.
const Prefix = "POLICY_REGISTRY"

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the full process configuration.
type Config struct {
	Addr            string        `default:":8080"`
	Env             string        `default:"development"`
	LogLevel        string        `default:"info" split_words:"true"`
	ShutdownTimeout time.Duration `default:"15s" split_words:"true"`

	// Registry construction parameters.
	MinimumPremium domain.Amount  `default:"10000000000000000" split_words:"true"`
	Owner          domain.Address `required:"true"`

	Storage     string `default:"memory"`
	DatabaseURL string `split_words:"true"`

	Cache  CacheConfig  `envconfig:"CACHE"`
	Redis  RedisConfig  `envconfig:"REDIS"`
	Kafka  KafkaConfig  `envconfig:"KAFKA"`
	Outbox OutboxConfig `envconfig:"OUTBOX"`
	JWT    JWTConfig    `envconfig:"JWT"`
	Payout PayoutConfig `envconfig:"PAYOUT"`
}

// CacheConfig sizes the per-process policy cache.
type CacheConfig struct {
	Size int           `default:"10000"`
	TTL  time.Duration `default:"5s"`
}

// RedisConfig configures the shared policy cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	TTL          time.Duration `default:"5m"`
	PoolSize     int           `default:"10" split_words:"true"`
	MinIdleConns int           `default:"2" split_words:"true"`
	DialTimeout  time.Duration `default:"5s" split_words:"true"`
	ReadTimeout  time.Duration `default:"3s" split_words:"true"`
	WriteTimeout time.Duration `default:"3s" split_words:"true"`
}

// KafkaConfig configures event publishing. Without brokers events are
// written to the log instead.
type KafkaConfig struct {
	Brokers  []string
	Topic    string `default:"policy-registry.events"`
	ClientID string `default:"policy-registry" split_words:"true"`
}

type OutboxConfig struct {
	PollInterval     time.Duration `default:"1s" split_words:"true"`
	BatchSize        int           `default:"100" split_words:"true"`
	FailureThreshold int           `default:"5" split_words:"true"`
}

type JWTConfig struct {
	SigningKey string `split_words:"true"`
	Issuer     string `default:"policy-registry"`
	Audience   string `default:"policy-registry-api"`
}

// PayoutConfig configures the payout ledger.
type PayoutConfig struct {
	// Blocked payees are refused by the in-memory ledger.
	Blocked         []domain.Address
	// TransferTimeout bounds one payout. It is independent of the request
	// deadline so a disconnecting client cannot abort a credit mid-flight.
	TransferTimeout time.Duration `default:"10s" split_words:"true"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects inconsistent configurations.
func (c *Config) Validate() error {
	var errs []error
	c.Kafka.Brokers = strs.DedupeAndTrim(c.Kafka.Brokers)
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", c.Storage))
	}
	if c.Owner.IsZero() {
		errs = append(errs, errors.New("OWNER must be a non-zero address"))
	}
	if c.MinimumPremium > domain.MaxAmount {
		errs = append(errs, errors.New("MINIMUM_PREMIUM exceeds the maximum amount"))
	}
	if c.JWT.SigningKey == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SIGNING_KEY is required in production"))
		} else {
			c.JWT.SigningKey = "dev-secret-key-change-in-production"
		}
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("CACHE_SIZE must be positive"))
	}
	if c.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if c.Payout.TransferTimeout <= 0 {
		errs = append(errs, errors.New("PAYOUT_TRANSFER_TIMEOUT must be positive"))
	}
	if c.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when brokers are set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}
