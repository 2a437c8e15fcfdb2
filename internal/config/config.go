package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// External reasoning service
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	OllamaHost  string  `mapstructure:"ollama_host" yaml:"ollama_host"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`

	// ExternalTimeoutMs bounds one external attempt before the local path
	// takes over.
	ExternalTimeoutMs int `mapstructure:"external_timeout_ms" yaml:"external_timeout_ms"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local engine
	MatchThreshold  float64 `mapstructure:"match_threshold" yaml:"match_threshold"`
	CatalogPath     string  `mapstructure:"catalog_path" yaml:"catalog_path,omitempty"`
	ForecastHorizon int     `mapstructure:"forecast_horizon" yaml:"forecast_horizon"`
	SampleRows      int     `mapstructure:"sample_rows" yaml:"sample_rows"`

	SessionTTLMin int    `mapstructure:"session_ttl_min" yaml:"session_ttl_min"`
	BatchWorkers  int    `mapstructure:"batch_workers" yaml:"batch_workers"`
	MetricsAddr   string `mapstructure:"metrics_addr" yaml:"metrics_addr,omitempty"`
}

func (c *Global) ExternalTimeout() time.Duration {
	return time.Duration(c.ExternalTimeoutMs) * time.Millisecond
}

func (c *Global) SessionTTL() time.Duration { return time.Duration(c.SessionTTLMin) * time.Minute }

// providers maps accepted spellings to provider ids.
var providers = map[string]string{
	"":           "none",
	"none":       "none",
	"off":        "none",
	"openrouter": "openrouter",
	"ollama":     "ollama",
	"local":      "ollama",
	"openai":     "openai",
	"anthropic":  "anthropic",
	"claude":     "anthropic",
}

// Set assigns one key from its string form, as typed on the command line.
func (c *Global) Set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	atof := func() (float64, error) {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("invalid float for %s: %v", key, val)
		}
		return f, nil
	}
	var err error
	switch key {
	case "provider":
		p, ok := providers[strings.ToLower(val)]
		if !ok {
			return fmt.Errorf("invalid provider: %s (use none, openrouter, ollama, openai or anthropic)", val)
		}
		c.Provider = p
	case "model":
		c.Model = val
	case "api_key":
		c.APIKey = val
	case "base_url":
		c.BaseURL = val
	case "ollama_host":
		c.OllamaHost = val
	case "catalog_path":
		c.CatalogPath = val
	case "metrics_addr":
		c.MetricsAddr = val
	case "max_tokens":
		c.MaxTokens, err = atoi()
	case "external_timeout_ms":
		c.ExternalTimeoutMs, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	case "forecast_horizon":
		c.ForecastHorizon, err = atoi()
	case "sample_rows":
		c.SampleRows, err = atoi()
	case "session_ttl_min":
		c.SessionTTLMin, err = atoi()
	case "batch_workers":
		c.BatchWorkers, err = atoi()
	case "temperature":
		c.Temperature, err = atof()
	case "match_threshold":
		var f float64
		if f, err = atof(); err == nil && f > 100 {
			err = fmt.Errorf("match_threshold must be within 0-100: %v", val)
		}
		if err == nil {
			c.MatchThreshold = f
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

func dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".queryloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.queryloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		d, err := dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(d, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	// Write a temp file and atomically rename it into place.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("QUERYLOOM")
	v.AutomaticEnv()

	v.SetDefault("provider", "none")
	v.SetDefault("model", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("max_tokens", 800)
	v.SetDefault("temperature", 0.2)
	v.SetDefault("external_timeout_ms", 4000)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("match_threshold", 70.0)
	v.SetDefault("catalog_path", "")
	v.SetDefault("forecast_horizon", 30)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("session_ttl_min", 60)
	v.SetDefault("batch_workers", 4)
	v.SetDefault("metrics_addr", "")
	return v
}

// Default returns the built-in configuration with environment overrides
// and no config file.
func Default() (*Global, error) { return decode(newViper()) }

// Load loads configuration from file, env, and defaults.
// Precedence: flags (applied by the caller) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := newViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		d, err := dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(d)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if p, ok := providers[strings.ToLower(c.Provider)]; ok {
		c.Provider = p
	} else {
		return nil, fmt.Errorf("invalid provider: %s", c.Provider)
	}
	return &c, nil
}
