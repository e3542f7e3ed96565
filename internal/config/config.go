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

// placeholderKey is the sample value shipped in example env files.
const placeholderKey = "your_api_key_here"

// Global configuration structure.
type Global struct {
	DatasetSource   string `mapstructure:"dataset_source" yaml:"dataset_source"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	GeminiAPIKey    string `mapstructure:"gemini_api_key" yaml:"gemini_api_key"`
	DefaultProvider string `mapstructure:"default_provider" yaml:"default_provider"`
	DefaultModel    string `mapstructure:"default_model" yaml:"default_model"`
	MaxPromptTokens int    `mapstructure:"max_prompt_tokens" yaml:"max_prompt_tokens"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`

	// Local runtimes (Ollama)
	OllamaHost string `mapstructure:"ollama_host" yaml:"ollama_host"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
	ServeAddr string `mapstructure:"serve_addr" yaml:"serve_addr"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"dataset_source", "api_key", "gemini_api_key", "default_provider", "default_model",
	"max_prompt_tokens", "http_timeout_sec", "retry_max_attempts", "retry_base_delay_ms",
	"retry_max_delay_ms", "ollama_host", "log_level", "log_format", "serve_addr",
}

// DefaultPath is ~/.wsd/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".wsd", "config.yaml"), nil
}

// Save writes c to cfgFile, or to DefaultPath when cfgFile is empty,
// creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
// A missing config file is not an error.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("WSD")
	v.AutomaticEnv()

	v.SetDefault("dataset_source", "data/WorldSustainabilityDataset.csv")
	v.SetDefault("api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("default_provider", "")
	v.SetDefault("default_model", "")
	v.SetDefault("max_prompt_tokens", 8000)
	v.SetDefault("http_timeout_sec", 60)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("ollama_host", "http://127.0.0.1:11434")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("serve_addr", ":8080")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(filepath.Dir(p))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config path that does not exist yet is fine too.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.GeminiAPIKey == placeholderKey {
		c.GeminiAPIKey = ""
	}
	if c.APIKey == placeholderKey {
		c.APIKey = ""
	}
	return &c, nil
}

// Provider resolves default_provider. When unset, the first hosted
// provider with a key wins (gemini, then openrouter), else local.
func (c *Global) Provider() string {
	if p := strings.ToLower(strings.TrimSpace(c.DefaultProvider)); p != "" {
		return p
	}
	switch {
	case c.GeminiAPIKey != "":
		return "gemini"
	case c.APIKey != "":
		return "openrouter"
	}
	return "local"
}

// KeyFor returns the credential used by provider.
func (c *Global) KeyFor(provider string) string {
	if provider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

func (c *Global) HTTPTimeout() time.Duration { return time.Duration(c.HTTPTimeoutSec) * time.Second }
func (c *Global) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelayMs) * time.Millisecond
}
func (c *Global) RetryMaxDelay() time.Duration {
	return time.Duration(c.RetryMaxDelayMs) * time.Millisecond
}

// Set assigns a single key from its string form.
func (c *Global) Set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return 0, fmt.Errorf("invalid non-negative int for %s: %q", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "dataset_source":
		c.DatasetSource = val
	case "api_key":
		c.APIKey = val
	case "gemini_api_key":
		c.GeminiAPIKey = val
	case "default_provider":
		switch p := strings.ToLower(val); p {
		case "", "local", "openrouter", "gemini", "ollama":
			c.DefaultProvider = p
		default:
			return fmt.Errorf("invalid default_provider: %s (use local, openrouter, gemini or ollama)", val)
		}
	case "default_model":
		c.DefaultModel = val
	case "max_prompt_tokens":
		c.MaxPromptTokens, err = atoi()
	case "http_timeout_sec":
		c.HTTPTimeoutSec, err = atoi()
	case "retry_max_attempts":
		c.RetryMaxAttempts, err = atoi()
	case "retry_base_delay_ms":
		c.RetryBaseDelayMs, err = atoi()
	case "retry_max_delay_ms":
		c.RetryMaxDelayMs, err = atoi()
	case "ollama_host":
		c.OllamaHost = val
	case "log_level":
		switch l := strings.ToLower(val); l {
		case "debug", "info", "warn", "error":
			c.LogLevel = l
		default:
			return fmt.Errorf("invalid log_level: %s", val)
		}
	case "log_format":
		switch f := strings.ToLower(val); f {
		case "text", "json":
			c.LogFormat = f
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "serve_addr":
		c.ServeAddr = val
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return err
}

// Get returns the display form of key, masking credentials.
func (c *Global) Get(key string) string {
	switch key {
	case "dataset_source":
		return c.DatasetSource
	case "api_key":
		return Mask(c.APIKey)
	case "gemini_api_key":
		return Mask(c.GeminiAPIKey)
	case "default_provider":
		if c.DefaultProvider == "" {
			return "(auto: " + c.Provider() + ")"
		}
		return c.DefaultProvider
	case "default_model":
		return c.DefaultModel
	case "max_prompt_tokens":
		return strconv.Itoa(c.MaxPromptTokens)
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec)
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts)
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs)
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs)
	case "ollama_host":
		return c.OllamaHost
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "serve_addr":
		return c.ServeAddr
	}
	return ""
}

// Mask hides all but the ends of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
