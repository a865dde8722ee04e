package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds the runtime settings for reviewdeck.
type Config struct {
	APIBaseURL     string        `mapstructure:"api-base-url"`
	PollInterval   time.Duration `mapstructure:"poll-interval"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	LogFile        string        `mapstructure:"log-file"`
	LogLevel       string        `mapstructure:"log-level"`
	MetricsAddr    string        `mapstructure:"metrics-addr"`
}

const (
	envPrefix = "REVIEWDECK"

	defaultConfigPath     = "~/.config/reviewdeck/config.toml"
	defaultAPIBaseURL     = "http://localhost:8000"
	defaultPollInterval   = 15 * time.Second
	defaultRequestTimeout = 10 * time.Second
	defaultLogFile        = "~/.local/state/reviewdeck/reviewdeck.log"
	defaultLogLevel       = "info"
)

// Keys shared by the config file, the environment and the command line.
const (
	KeyAPIBaseURL     = "api-base-url"
	KeyPollInterval   = "poll-interval"
	KeyRequestTimeout = "request-timeout"
	KeyLogFile        = "log-file"
	KeyLogLevel       = "log-level"
	KeyMetricsAddr    = "metrics-addr"
)

// RegisterFlags adds the overridable settings to fs. Only flags the user
// actually sets take precedence over the environment and config file.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyAPIBaseURL, defaultAPIBaseURL, "review service base URL")
	fs.Duration(KeyPollInterval, defaultPollInterval, "auto refresh interval")
	fs.Duration(KeyRequestTimeout, defaultRequestTimeout, "timeout for each review request")
	fs.String(KeyLogFile, defaultLogFile, "log file path")
	fs.String(KeyLogLevel, defaultLogLevel, "log level (debug, info, warn, error)")
	fs.String(KeyMetricsAddr, "", "serve Prometheus metrics on this address (disabled when empty)")
}

// Load resolves settings from, in order of precedence: flags set on fs, the
// REVIEWDECK_* environment (API_BASE_URL is also honoured for the base
// URL), the TOML file at path, and defaults. A missing file is not an error.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv(KeyAPIBaseURL, envPrefix+"_API_BASE_URL", "API_BASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	v.SetDefault(KeyAPIBaseURL, defaultAPIBaseURL)
	v.SetDefault(KeyPollInterval, defaultPollInterval)
	v.SetDefault(KeyRequestTimeout, defaultRequestTimeout)
	v.SetDefault(KeyLogFile, defaultLogFile)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyMetricsAddr, "")

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetConfigFile(resolved)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return normalize(cfg)
}

func normalize(cfg Config) (Config, error) {
	cfg.APIBaseURL = strings.TrimSpace(cfg.APIBaseURL)
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.PollInterval <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyPollInterval, cfg.PollInterval)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	cfg.LogFile = strings.TrimSpace(cfg.LogFile)
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}
	cfg.LogFile = mustExpand(cfg.LogFile)

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	cfg.MetricsAddr = strings.TrimSpace(cfg.MetricsAddr)
	return cfg, nil
}

// DefaultPath returns the config file consulted when none is given.
func DefaultPath() string {
	return mustExpand(defaultConfigPath)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
