// Package config loads proofloop settings from an optional YAML file, a .env
// file and PROOFLOOP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/abhisek/proofloop/internal/engine"
	"github.com/abhisek/proofloop/internal/llm"
	"github.com/abhisek/proofloop/internal/prooflog"
	"github.com/abhisek/proofloop/internal/store"
)

// EnvPrefix is prepended to every environment override, e.g.
// PROOFLOOP_LLM_PROVIDER for llm.provider.
const EnvPrefix = "PROOFLOOP"

type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Proof   ProofConfig   `mapstructure:"proof"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type DBConfig struct {
	// Path is empty until resolved by Load.
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" validate:"gte=1"`
	InitialWait time.Duration `mapstructure:"initial_wait" validate:"gt=0"`
	MaxWait     time.Duration `mapstructure:"max_wait" validate:"gt=0,gtefield=InitialWait"`
}

type LLMConfig struct {
	Provider   string         `mapstructure:"provider" validate:"oneof=none auto anthropic openai gemini openrouter mock"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Timeout    time.Duration  `mapstructure:"timeout" validate:"gt=0"`
	Retry      RetryConfig    `mapstructure:"retry"`
}

type EngineConfig struct {
	ModelAssistedClassification bool          `mapstructure:"model_assisted_classification"`
	ModelPrompts                bool          `mapstructure:"model_prompts"`
	ValidatorTimeout            time.Duration `mapstructure:"validator_timeout" validate:"gt=0"`
}

type ProofConfig struct {
	WriteTimeout     time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	RetryTTL         time.Duration `mapstructure:"retry_ttl" validate:"gt=0"`
	RetryMaxAttempts int           `mapstructure:"retry_max_attempts" validate:"gte=1"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables it.
	Addr string `mapstructure:"addr" validate:"omitempty,hostname_port"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	llmDefaults := llm.DefaultConfig()
	proofDefaults := prooflog.DefaultConfig()
	engDefaults := engine.DefaultConfig()

	v.SetDefault("db.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("llm.provider", llmDefaults.Provider)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", llmDefaults.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", llmDefaults.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.timeout", llmDefaults.Timeout)
	v.SetDefault("llm.retry.max_attempts", llmDefaults.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", llmDefaults.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", llmDefaults.Retry.MaxWait)

	v.SetDefault("engine.model_assisted_classification", engDefaults.Classifier.ModelAssisted)
	v.SetDefault("engine.model_prompts", engDefaults.Prompt.UseModel)
	v.SetDefault("engine.validator_timeout", engDefaults.Validation.Timeout)

	v.SetDefault("proof.write_timeout", proofDefaults.WriteTimeout)
	v.SetDefault("proof.retry_ttl", proofDefaults.RetryTTL)
	v.SetDefault("proof.retry_max_attempts", proofDefaults.MaxAttempts)
	v.SetDefault("proof.sweep_interval", proofDefaults.SweepInterval)

	v.SetDefault("metrics.addr", "")
}

// DefaultPath returns ~/.config/proofloop/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "proofloop", "config.yaml"), nil
}

// Load reads configuration. An explicit path must exist; the default path
// is optional. A .env file in the working directory is applied to the
// environment first without overriding variables already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and the selected provider's credentials.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.LLMConfig().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DBPath returns the configured database path, falling back to the
// default data directory location.
func (c *Config) DBPath() (string, error) {
	if c.DB.Path != "" {
		return c.DB.Path, store.EnsureDir(c.DB.Path)
	}
	return store.DefaultDBPath()
}

// LLMConfig maps the llm section onto llm.Config. The "auto" provider is
// resolved from the standard API key variables.
func (c *Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	out.Provider = c.LLM.Provider
	out.Anthropic = llm.AnthropicConfig{APIKey: c.LLM.Anthropic.APIKey, Model: c.LLM.Anthropic.Model}
	out.OpenAI = llm.OpenAIConfig{APIKey: c.LLM.OpenAI.APIKey, Model: c.LLM.OpenAI.Model, BaseURL: c.LLM.OpenAI.BaseURL}
	out.Gemini = llm.GeminiConfig{APIKey: c.LLM.Gemini.APIKey, Model: c.LLM.Gemini.Model}
	out.OpenRouter = llm.OpenRouterConfig{APIKey: c.LLM.OpenRouter.APIKey, Model: c.LLM.OpenRouter.Model, BaseURL: c.LLM.OpenRouter.BaseURL}
	out.Timeout = c.LLM.Timeout
	out.Retry.MaxAttempts = c.LLM.Retry.MaxAttempts
	out.Retry.InitialWait = c.LLM.Retry.InitialWait
	out.Retry.MaxWait = c.LLM.Retry.MaxWait
	if out.Provider == llm.ProviderAuto {
		out, _ = out.Discover()
	}
	return out
}

// EngineConfig maps the engine section onto engine.Config.
func (c *Config) EngineConfig() engine.Config {
	out := engine.DefaultConfig()
	out.Classifier.ModelAssisted = c.Engine.ModelAssistedClassification
	out.Prompt.UseModel = c.Engine.ModelPrompts
	out.Validation.Timeout = c.Engine.ValidatorTimeout
	return out
}

// ProofLogConfig maps the proof section onto prooflog.Config.
func (c *Config) ProofLogConfig() prooflog.Config {
	return prooflog.Config{
		WriteTimeout:  c.Proof.WriteTimeout,
		RetryTTL:      c.Proof.RetryTTL,
		MaxAttempts:   c.Proof.RetryMaxAttempts,
		SweepInterval: c.Proof.SweepInterval,
	}
}
