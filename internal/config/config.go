package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/bizdata-cli/internal/ai"
)

// DirName is the per-user directory under $HOME holding config.yaml.
const DirName = ".bizdata"

// Global configuration structure.
type Global struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Provider    string  `mapstructure:"provider" yaml:"provider"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TopP        float64 `mapstructure:"top_p" yaml:"top_p"`
	// MaxTokens of 0 leaves the output length to the provider.
	MaxTokens int `mapstructure:"max_tokens" yaml:"max_tokens"`

	// HTTPTimeoutSec of 0 disables the client timeout.
	HTTPTimeoutSec    int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`
	GeminiEndpoint    string `mapstructure:"gemini_endpoint" yaml:"gemini_endpoint"`
	OpenRouterBaseURL string `mapstructure:"openrouter_base_url" yaml:"openrouter_base_url"`
	OllamaHost        string `mapstructure:"ollama_host" yaml:"ollama_host"`

	// Timezone buckets weekday/hour statistics; an IANA name or "Local".
	Timezone  string `mapstructure:"timezone" yaml:"timezone"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HTTP API
	ServeAddr      string  `mapstructure:"serve_addr" yaml:"serve_addr"`
	ChatRatePerSec float64 `mapstructure:"chat_rate_per_sec" yaml:"chat_rate_per_sec"`
	ChatBurst      int     `mapstructure:"chat_burst" yaml:"chat_burst"`
	MaxUploadMB    int     `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Keys lists every settable key in display order.
var Keys = []string{
	"api_key", "provider", "model", "temperature", "top_p", "max_tokens",
	"http_timeout_sec", "gemini_endpoint", "openrouter_base_url", "ollama_host",
	"timezone", "log_level", "log_format",
	"serve_addr", "chat_rate_per_sec", "chat_burst", "max_upload_mb",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ai.ProviderGemini)
	v.SetDefault("model", ai.DefaultGeminiModel)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("top_p", 0.95)
	v.SetDefault("max_tokens", 0)
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("gemini_endpoint", ai.DefaultGeminiEndpoint)
	v.SetDefault("openrouter_base_url", ai.DefaultOpenRouterBaseURL)
	v.SetDefault("ollama_host", ai.DefaultOllamaHost)
	v.SetDefault("timezone", "UTC")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("serve_addr", ":8080")
	v.SetDefault("chat_rate_per_sec", 1.0)
	v.SetDefault("chat_burst", 5)
	v.SetDefault("max_upload_mb", 20)
}

// Default returns the built-in configuration with no file or env applied.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// Path resolves the config file location: cfgFile when set, else ~/.bizdata/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, DirName, "config.yaml"), nil
}

// Save writes the given configuration to cfgFile (or the default path),
// creating the directory if necessary. The file holds the API key, so it is
// written owner-only.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
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
func Load(cfgFile string) (*Global, error) {
	c, err := load(cfgFile, true)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads the config file over the defaults, ignoring the environment
// and skipping validation. It is the base for edits that are saved back.
func LoadFile(cfgFile string) (*Global, error) {
	return load(cfgFile, false)
}

func load(cfgFile string, withEnv bool) (*Global, error) {
	v := viper.New()
	if withEnv {
		v.SetEnvPrefix("BIZDATA")
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
		// The key is also accepted under the names Google tooling uses.
		_ = v.BindEnv("api_key", "BIZDATA_API_KEY", "GEMINI_API_KEY", "API_KEY")
	}
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, DirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// A missing file is fine; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Validate rejects values no component can run with.
func (c *Global) Validate() error {
	if _, ok := ai.GetRuntime(c.Provider, ai.RuntimeConfig{}); !ok {
		return fmt.Errorf("unknown provider %q (available: %s)", c.Provider, strings.Join(ai.Providers(), ", "))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1, got %v", c.TopP)
	}
	if c.MaxTokens < 0 || c.HTTPTimeoutSec < 0 || c.MaxUploadMB < 0 || c.ChatBurst < 0 || c.ChatRatePerSec < 0 {
		return fmt.Errorf("numeric settings must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Location resolves Timezone; empty means UTC.
func (c *Global) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "UTC") {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// HTTPTimeout converts HTTPTimeoutSec; 0 means no timeout.
func (c *Global) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// RuntimeConfig maps the settings of the selected provider onto ai.RuntimeConfig.
func (c *Global) RuntimeConfig() ai.RuntimeConfig {
	rc := ai.RuntimeConfig{HTTPTimeout: c.HTTPTimeout(), APIKey: c.APIKey, Host: c.OllamaHost}
	switch c.Provider {
	case ai.ProviderGemini:
		rc.BaseURL = c.GeminiEndpoint
	case ai.ProviderOpenRouter:
		rc.BaseURL = c.OpenRouterBaseURL
	}
	return rc
}
