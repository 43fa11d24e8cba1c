package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
provider: ollama
workers: 3
ollama:
  default_model: mxbai-embed-large
  aliases:
    roberta-large: bge-m3
cache:
  addr: localhost:6379
  ttl: 24h
metrics:
  model_name: bert-base-uncased
  sacrebleu:
    smooth_method: floor
    smooth_value: 0.1
  bertscore:
    lang: en
    idf: true
  depth:
    directions: 500
  infolm:
    measure: ab
    alpha: 1
    beta: 0.5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nlgeval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvProvider, EnvLogLevel, EnvWorkers, EnvProject, EnvRegion, EnvOllama, EnvValkey} {
		t.Setenv(key, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.Cache.Addr)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, ProviderOllama, cfg.Provider)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "bge-m3", cfg.Ollama.Aliases["roberta-large"])
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "nlgeval:emb:", cfg.Cache.Prefix)

	opts := cfg.Metrics.MetricOptions()
	assert.Equal(t, "bert-base-uncased", opts.ModelName)
	assert.Equal(t, "floor", opts.SacreBLEU.SmoothMethod)
	require.NotNil(t, opts.SacreBLEU.SmoothValue)
	assert.InDelta(t, 0.1, *opts.SacreBLEU.SmoothValue, 1e-12)
	assert.Equal(t, "en", opts.BERTScore.Lang)
	assert.True(t, opts.BERTScore.IDF)
	assert.Equal(t, 500, opts.Depth.Directions)
	assert.Equal(t, "ab", opts.InfoLM.Measure)
	require.NotNil(t, opts.InfoLM.Alpha)
	assert.Equal(t, 1.0, *opts.InfoLM.Alpha)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvProvider, ProviderGemini)
	t.Setenv(EnvProject, "my-project")
	t.Setenv(EnvRegion, "europe-west1")
	t.Setenv(EnvValkey, "cache:6379")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvWorkers, "7")

	cfg, err := Load(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "my-project", cfg.Gemini.Project)
	assert.Equal(t, "europe-west1", cfg.Gemini.Location)
	assert.Equal(t, "cache:6379", cfg.Cache.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.Workers)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("OLLAMA_HOST=http://gpu-box:11434\n"), 0o600))
	// godotenv never overrides variables that exist, even empty ones
	require.NoError(t, os.Unsetenv(EnvOllama))
	t.Cleanup(func() { os.Unsetenv(EnvOllama) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Ollama.Host)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "unknown provider", content: "provider: openai\n"},
		{name: "negative workers", content: "workers: -1\n"},
		{name: "malformed yaml", content: "provider: [\n"},
		{name: "bad workers env", content: "provider: gemini\n", env: map[string]string{EnvWorkers: "many"}},
		{name: "negative depth n_alpha", content: "metrics:\n  depth:\n    n_alpha: -1\n"},
		{name: "negative depth directions", content: "metrics:\n  depth:\n    directions: -5\n"},
		{name: "depth eps above one", content: "metrics:\n  depth:\n    eps: 1.5\n"},
		{name: "negative infolm window", content: "metrics:\n  infolm:\n    window: -1\n"},
		{name: "renyi alpha of one", content: "metrics:\n  infolm:\n    measure: renyi\n    alpha: 1\n"},
		{name: "beta measure without beta", content: "metrics:\n  infolm:\n    measure: beta\n"},
		{name: "negative bary window", content: "metrics:\n  bary:\n    window: -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
