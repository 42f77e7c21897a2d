// Package config loads tradebus configuration the way the source project
// does: a .env file for secrets/connection strings, a yaml file for the
// structural bits (bridge whitelist, store URLs, bus knobs), defaults in
// between. The stream-override file is not part of the yaml: its path comes
// from TRADEBUS_STREAMS_FILE and streams.LoadOverrides reads it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig describes the trade-plane SQL store's connection.
// Driver is always "postgres" — tradestate.PostgresStore's queries and its
// embedded migrations use Postgres-only syntax, so no other value is valid.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// BusConfig carries the §6.4 consumer/producer knobs.
type BusConfig struct {
	IdempotencyTTL      time.Duration `yaml:"idempotency_ttl"`
	HandlerTimeout      time.Duration `yaml:"handler_timeout"`
	MaxAttempts         int           `yaml:"max_attempts"`
	RetryBackoffBase    time.Duration `yaml:"retry_backoff_base"`
	RetryBackoffFactor  float64       `yaml:"retry_backoff_factor"`
	RetryBackoffCap     time.Duration `yaml:"retry_backoff_cap"`
	WorkerConcurrency   int           `yaml:"worker_concurrency"`
	VisibilityTimeout   time.Duration `yaml:"visibility_timeout"`
}

// TradeConfig carries the C6 reconciler/lease knobs.
type TradeConfig struct {
	ReconcilePeriod time.Duration `yaml:"reconcile_period"`
	LeaseTTL        time.Duration `yaml:"lease_ttl"`
}

// ReplayMode selects the golden-event harness's publishing policy (§4.4).
type ReplayMode string

const (
	ReplaySkipInvalid    ReplayMode = "skip_invalid"
	ReplayFailOnInvalid  ReplayMode = "fail_on_invalid"
	ReplayIncludeInvalid ReplayMode = "include_invalid"
)

// Config is the fully assembled tradebus configuration.
type Config struct {
	Log   LogConfig `yaml:"log"`
	Kafka KafkaConfig `yaml:"kafka"`

	StoreURLCompute string `yaml:"store_url_compute"`
	StoreURLTrade   string `yaml:"store_url_trade"`

	TradeDatabase DatabaseConfig `yaml:"trade_database"`

	Bus   BusConfig   `yaml:"bus"`
	Trade TradeConfig `yaml:"trade"`

	ReplayMode      ReplayMode `yaml:"replay_mode"`
	BridgeWhitelist []string   `yaml:"bridge_whitelist"`

	StreamsFile string `yaml:"-"`
}

// LogConfig mirrors logger.Config so config.yaml can set it without an
// import cycle on the logger package.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// KafkaConfig describes the external feed the ingestion gateway reads from.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Group   string   `yaml:"group"`
}

// DefaultBridgeWhitelist is the hard-coded default of spec.md §6.2. A
// bridge_whitelist list in the yaml file replaces it entirely; MustLoad only
// rejects a configured whitelist that comes back empty.
var DefaultBridgeWhitelist = []string{"risk.order.approved.v1"}

func defaults() Config {
	return Config{
		Log: LogConfig{Level: "info"},
		Bus: BusConfig{
			IdempotencyTTL:     7 * 24 * time.Hour,
			HandlerTimeout:     30 * time.Second,
			MaxAttempts:        5,
			RetryBackoffBase:   time.Second,
			RetryBackoffFactor: 2,
			RetryBackoffCap:    60 * time.Second,
			WorkerConcurrency:  4,
			VisibilityTimeout:  30 * time.Second,
		},
		Trade: TradeConfig{
			ReconcilePeriod: 30 * time.Second,
			LeaseTTL:        10 * time.Second,
		},
		ReplayMode:      ReplaySkipInvalid,
		BridgeWhitelist: append([]string(nil), DefaultBridgeWhitelist...),
		TradeDatabase:   DatabaseConfig{Driver: "postgres"},
	}
}

// MustLoad assembles Config from an optional .env file, an optional yaml
// file, and environment overrides. It panics on a malformed yaml file or an
// empty bridge whitelist — both are configuration bugs, and spec.md §7
// treats UnauthorizedStream-class mistakes as fatal at startup.
func MustLoad(envPath, yamlPath string) *Config {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			panic(fmt.Sprintf("config: load .env: %v", err))
		}
	}

	cfg := defaults()
	if yamlPath != "" {
		b, err := os.ReadFile(yamlPath)
		if err != nil && !os.IsNotExist(err) {
			panic(fmt.Sprintf("config: read %s: %v", yamlPath, err))
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				panic(fmt.Sprintf("config: parse %s: %v", yamlPath, err))
			}
		}
	}
	cfg.StreamsFile = os.Getenv("TRADEBUS_STREAMS_FILE")

	applyEnv(&cfg)

	if len(cfg.BridgeWhitelist) == 0 {
		panic("config: bridge_whitelist must not be empty")
	}
	return &cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STORE_URL_COMPUTE"); v != "" {
		cfg.StoreURLCompute = v
	}
	if v := os.Getenv("STORE_URL_TRADE"); v != "" {
		cfg.StoreURLTrade = v
	}
	if v := os.Getenv("TRADE_DATABASE_DSN"); v != "" {
		cfg.TradeDatabase.DSN = v
	}
	if v := os.Getenv("TRADE_DATABASE_DRIVER"); v != "" {
		cfg.TradeDatabase.Driver = v
	}
	if v := os.Getenv("MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Bus.MaxAttempts = n
		}
	}
	if v := os.Getenv("REPLAY_MODE"); v != "" {
		cfg.ReplayMode = ReplayMode(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
