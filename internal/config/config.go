// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rovshanmuradov/auction-house/internal/types"
)

type Config struct {
	RPCURL                string `mapstructure:"rpc_url"`
	Commitment            string `mapstructure:"commitment"`
	ConfirmationTimeoutMs int    `mapstructure:"confirmation_timeout_ms"`
	PollIntervalMs        int    `mapstructure:"poll_interval_ms"`
	SkipPreflight         bool   `mapstructure:"skip_preflight"`
	Keypair               string `mapstructure:"keypair"`
	DebugLogging          bool   `mapstructure:"debug_logging"`
	LogFile               string `mapstructure:"log_file"`
	MetricsAddr           string `mapstructure:"metrics_addr"`
	Priority              string `mapstructure:"priority"`
	DryRun                bool   `mapstructure:"dry_run"`
}

const (
	EnvPrefix = "AUCTION_HOUSE"

	DefaultRPCURL              = "https://api.devnet.solana.com"
	DefaultCommitment          = "confirmed"
	DefaultConfirmationTimeout = 60000
	DefaultPollInterval        = 500
	DefaultLogFile             = "auction-house.log"
)

var validCommitments = map[string]bool{
	"processed": true,
	"confirmed": true,
	"finalized": true,
}

// ConfirmationTimeout возвращает таймаут подтверждения как time.Duration.
func (c *Config) ConfirmationTimeout() time.Duration {
	return time.Duration(c.ConfirmationTimeoutMs) * time.Millisecond
}

// PollInterval возвращает интервал опроса статуса как time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// BindFlags регистрирует флаги командной строки. Значения флагов
// перекрывают файл и переменные окружения.
func BindFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file (json or yaml)")
	fs.String("rpc_url", DefaultRPCURL, "Solana RPC endpoint")
	fs.String("commitment", DefaultCommitment, "confirmation level: processed, confirmed or finalized")
	fs.Int("confirmation_timeout_ms", DefaultConfirmationTimeout, "how long to wait for confirmation")
	fs.Int("poll_interval_ms", DefaultPollInterval, "signature status poll interval")
	fs.Bool("skip_preflight", false, "skip RPC preflight simulation")
	fs.String("keypair", "", "keypair file or base58 private key of the signing wallet")
	fs.Bool("debug_logging", false, "enable debug logging")
	fs.String("log_file", DefaultLogFile, "rotating JSON log file, empty to disable")
	fs.String("metrics_addr", "", "serve prometheus metrics on this address")
	fs.String("priority", "none", "compute budget priority: none, low, medium or high")
	fs.Bool("dry_run", false, "simulate transactions instead of sending them")
}

// LoadConfig читает конфигурацию из файла (если path не пуст), переменных
// окружения AUCTION_HOUSE_* и флагов fs (если fs не nil).
func LoadConfig(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_url":                 DefaultRPCURL,
		"commitment":              DefaultCommitment,
		"confirmation_timeout_ms": DefaultConfirmationTimeout,
		"poll_interval_ms":        DefaultPollInterval,
		"skip_preflight":          false,
		"debug_logging":           false,
		"log_file":                DefaultLogFile,
		"keypair":                 "",
		"metrics_addr":            "",
		"priority":                "none",
		"dry_run":                 false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	loadEnvironmentVariables(v)

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Commitment = strings.ToLower(strings.TrimSpace(cfg.Commitment))

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if cfg.RPCURL == "" {
		return errors.New("rpc_url is empty")
	}
	if err := validateURL(cfg.RPCURL, "http"); err != nil {
		return fmt.Errorf("invalid rpc_url: %w", err)
	}
	if !validCommitments[cfg.Commitment] {
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if cfg.ConfirmationTimeoutMs <= 0 {
		return errors.New("invalid confirmation_timeout_ms")
	}
	if cfg.PollIntervalMs <= 0 {
		return errors.New("invalid poll_interval_ms")
	}
	if cfg.PollIntervalMs > cfg.ConfirmationTimeoutMs {
		return errors.New("poll_interval_ms exceeds confirmation_timeout_ms")
	}
	if _, err := types.ParsePriorityLevel(cfg.Priority); err != nil {
		return err
	}
	return nil
}

func validateURL(rawURL string, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	if parsed.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func loadEnvironmentVariables(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}
