// Package config loads service configuration from an optional YAML file
// overlaid by CREDCHAIN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	pstrings "credchain/pkg/platform/strings"
)

const envPrefix = "CREDCHAIN"

const (
	devAccessSecret  = "dev-access-secret-change-in-production"
	devRefreshSecret = "dev-refresh-secret-change-in-production"
)

type Config struct {
	Env          string             `yaml:"env"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Database     DatabaseConfig     `yaml:"database"`
	Redis        RedisConfig        `yaml:"redis"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	Auth         AuthConfig         `yaml:"auth"`
	Chain        ChainConfig        `yaml:"chain"`
	Verification VerificationConfig `yaml:"verification"`
	Upload       UploadConfig       `yaml:"upload"`
	Audit        AuditConfig        `yaml:"audit"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"     split_words:"true"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"    split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"     split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// DatabaseConfig configures Postgres. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"maxOpenConns"    split_words:"true"`
	MaxIdleConns    int           `yaml:"maxIdleConns"    split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" split_words:"true"`
	ConnectRetries  uint64        `yaml:"connectRetries"  split_words:"true"`
}

// RedisConfig configures the verification token store. An empty URL selects
// the in-memory store.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"poolSize"     split_words:"true"`
	MinIdleConns int           `yaml:"minIdleConns" split_words:"true"`
	DialTimeout  time.Duration `yaml:"dialTimeout"  split_words:"true"`
	ReadTimeout  time.Duration `yaml:"readTimeout"  split_words:"true"`
	WriteTimeout time.Duration `yaml:"writeTimeout" split_words:"true"`
}

// KafkaConfig configures the audit outbox relay. Without brokers the relay
// does not run and outbox rows accumulate.
type KafkaConfig struct {
	Brokers           string        `yaml:"brokers"`
	Topic             string        `yaml:"topic"`
	Partitions        int32         `yaml:"partitions"`
	ReplicationFactor int16         `yaml:"replicationFactor" split_words:"true"`
	RelayInterval     time.Duration `yaml:"relayInterval"     split_words:"true"`
	RelayBatchSize    int           `yaml:"relayBatchSize"    split_words:"true"`
}

// BrokerList returns the configured brokers, trimmed and deduplicated.
func (k KafkaConfig) BrokerList() []string {
	return pstrings.DedupeAndTrim(strings.Split(k.Brokers, ","))
}

type AuthConfig struct {
	AccessSecret  string        `yaml:"accessSecret"  split_words:"true"`
	RefreshSecret string        `yaml:"refreshSecret" split_words:"true"`
	AccessTTL     time.Duration `yaml:"accessTTL"     envconfig:"ACCESS_TTL"`
	RefreshTTL    time.Duration `yaml:"refreshTTL"    envconfig:"REFRESH_TTL"`
	Issuer        string        `yaml:"issuer"`
	BcryptCost    int           `yaml:"bcryptCost"    split_words:"true"`
}

const (
	ChainBackendLedger   = "ledger"
	ChainBackendEthereum = "ethereum"
)

type ChainConfig struct {
	Backend         string        `yaml:"backend"`
	Network         string        `yaml:"network"`
	RPCURL          string        `yaml:"rpcURL"          envconfig:"RPC_URL"`
	PrivateKey      string        `yaml:"privateKey"      split_words:"true"`
	ContractAddress string        `yaml:"contractAddress" split_words:"true"`
	ChainID         int64         `yaml:"chainID"         envconfig:"CHAIN_ID"`
	DialRetries     uint64        `yaml:"dialRetries"     split_words:"true"`
	LedgerDir       string        `yaml:"ledgerDir"       split_words:"true"`
	LedgerOwner     string        `yaml:"ledgerOwner"     split_words:"true"`
	CallTimeout     time.Duration `yaml:"callTimeout"     split_words:"true"`
	BreakerFailures int           `yaml:"breakerFailures" split_words:"true"`
	BreakerCooldown time.Duration `yaml:"breakerCooldown" split_words:"true"`
}

type VerificationConfig struct {
	TokenTTL time.Duration `yaml:"tokenTTL" envconfig:"TOKEN_TTL"`
	// Retention keeps expired tokens resolvable (as expired) for this long.
	Retention time.Duration `yaml:"retention"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"maxBytes" split_words:"true"`
}

type AuditConfig struct {
	BufferSize int `yaml:"bufferSize" split_words:"true"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Env: "dev",
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    3 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			ConnectRetries:  5,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic:             "credchain.audit",
			Partitions:        3,
			ReplicationFactor: 1,
			RelayInterval:     time.Second,
			RelayBatchSize:    100,
		},
		Auth: AuthConfig{
			AccessSecret:  devAccessSecret,
			RefreshSecret: devRefreshSecret,
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Issuer:        "credchain",
			BcryptCost:    10,
		},
		Chain: ChainConfig{
			Backend:         ChainBackendLedger,
			Network:         "sepolia",
			DialRetries:     5,
			LedgerOwner:     "0x00000000000000000000000000000000000c4a1e",
			CallTimeout:     2 * time.Minute,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Verification: VerificationConfig{
			TokenTTL:  24 * time.Hour,
			Retention: 7 * 24 * time.Hour,
		},
		Upload: UploadConfig{MaxBytes: 20 << 20},
		Audit:  AuditConfig{BufferSize: 1024},
	}
}

// Load reads path (if non-empty) over the defaults and then applies
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDev reports whether development defaults are acceptable.
func (c *Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev"
}

func (c *Config) Validate() error {
	var errs []error
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		errs = append(errs, errors.New("auth: access and refresh secrets are required"))
	}
	if c.Auth.AccessSecret == c.Auth.RefreshSecret && c.Auth.AccessSecret != "" {
		errs = append(errs, errors.New("auth: access and refresh secrets must differ"))
	}
	if !c.IsDev() && (c.Auth.AccessSecret == devAccessSecret || c.Auth.RefreshSecret == devRefreshSecret) {
		errs = append(errs, fmt.Errorf("auth: development secrets are not allowed in env %q", c.Env))
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		errs = append(errs, errors.New("auth: token TTLs must be positive"))
	}
	switch c.Chain.Backend {
	case ChainBackendLedger:
	case ChainBackendEthereum:
		if c.Chain.RPCURL == "" || c.Chain.PrivateKey == "" || c.Chain.ContractAddress == "" {
			errs = append(errs, errors.New("chain: ethereum backend needs rpcURL, privateKey and contractAddress"))
		}
	default:
		errs = append(errs, fmt.Errorf("chain: unknown backend %q", c.Chain.Backend))
	}
	if c.Chain.CallTimeout <= 0 {
		errs = append(errs, errors.New("chain: callTimeout must be positive"))
	}
	if c.Verification.TokenTTL <= 0 {
		errs = append(errs, errors.New("verification: tokenTTL must be positive"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("upload: maxBytes must be positive"))
	}
	return errors.Join(errs...)
}
