package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/abhisek/proofloop/internal/llm"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, llm.ProviderNone, cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.False(t, cfg.Engine.ModelAssistedClassification)
	assert.True(t, cfg.Engine.ModelPrompts)
	assert.Equal(t, 8*time.Second, cfg.Engine.ValidatorTimeout)
	assert.Equal(t, 2*time.Second, cfg.Proof.WriteTimeout)
	assert.Equal(t, 5*time.Minute, cfg.Proof.RetryTTL)
	assert.Equal(t, 3, cfg.Proof.RetryMaxAttempts)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
log:
  level: debug
llm:
  provider: openai
  openai:
    api_key: sk-file
    model: gpt-4o
engine:
  validator_timeout: 3s
proof:
  retry_max_attempts: 5
metrics:
  addr: localhost:9090
`)
	t.Setenv("PROOFLOOP_LLM_OPENAI_MODEL", "gpt-4o-mini")
	t.Setenv("PROOFLOOP_ENGINE_MODEL_ASSISTED_CLASSIFICATION", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "sk-file", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model, "env beats file")
	assert.True(t, cfg.Engine.ModelAssistedClassification)
	assert.Equal(t, 3*time.Second, cfg.Engine.ValidatorTimeout)
	assert.Equal(t, 5, cfg.Proof.RetryMaxAttempts)
	assert.Equal(t, "localhost:9090", cfg.Metrics.Addr)

	ec := cfg.EngineConfig()
	assert.True(t, ec.Classifier.ModelAssisted)
	assert.Equal(t, 3*time.Second, ec.Validation.Timeout)
	assert.Equal(t, 5, cfg.ProofLogConfig().MaxAttempts)

	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderOpenAI, lc.Provider)
	assert.Equal(t, "gpt-4o-mini", lc.OpenAI.Model)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown provider", "llm:\n  provider: carrier-pigeon\n"},
		{"missing api key", "llm:\n  provider: anthropic\n"},
		{"zero write timeout", "proof:\n  write_timeout: 0s\n"},
		{"zero retry attempts", "proof:\n  retry_max_attempts: 0\n"},
		{"bad log level", "log:\n  level: chatty\n"},
		{"max wait below initial", "llm:\n  retry:\n    initial_wait: 5s\n    max_wait: 1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Errorf("got nil error, want rejection")
			}
		})
	}
}

func TestLLMConfig_AutoDiscovers(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	path := writeConfig(t, "llm:\n  provider: auto\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	lc := cfg.LLMConfig()
	assert.Equal(t, llm.ProviderGemini, lc.Provider)
	assert.Equal(t, "g-key", lc.Gemini.APIKey)
}

func TestDBPath(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("PROOFLOOP_DB", filepath.Join(dir, "env.db"))

	cfg := &Config{}
	p, err := cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "env.db"), p)

	cfg.DB.Path = filepath.Join(dir, "nested", "explicit.db")
	p, err = cfg.DBPath()
	require.NoError(t, err)
	assert.Equal(t, cfg.DB.Path, p)
	assert.DirExists(t, filepath.Join(dir, "nested"))
}

func TestNewLogger(t *testing.T) {
	log, err := LogConfig{Level: "warn"}.NewLogger()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

	_, err = LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
