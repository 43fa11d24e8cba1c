// Package config loads nlgeval settings from a YAML file, a .env file and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/datar-psa/nlgeval"
	"github.com/datar-psa/nlgeval/embedding"
	"github.com/datar-psa/nlgeval/heuristic"
)

// Providers
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Environment variables overriding the file
const (
	EnvProvider  = "NLGEVAL_PROVIDER"
	EnvLogLevel  = "NLGEVAL_LOG_LEVEL"
	EnvWorkers   = "NLGEVAL_WORKERS"
	EnvProject   = "GOOGLE_PROJECT_ID"
	EnvRegion    = "GOOGLE_REGION"
	EnvOllama    = "OLLAMA_HOST"
	EnvValkey    = "VALKEY_ADDR"
	defaultLevel = "info"
)

// GeminiConfig configures the Gemini embedding provider
type GeminiConfig struct {
	Project      string            `yaml:"project"`
	Location     string            `yaml:"location"`
	DefaultModel string            `yaml:"default_model,omitempty"`
	Aliases      map[string]string `yaml:"aliases,omitempty"`
	// SyntaxTokenizer tokenizes with Cloud Natural Language instead of the local word tokenizer
	SyntaxTokenizer bool `yaml:"syntax_tokenizer,omitempty"`
}

// OllamaConfig configures the Ollama embedding provider
type OllamaConfig struct {
	Host         string            `yaml:"host,omitempty"`
	DefaultModel string            `yaml:"default_model,omitempty"`
	Aliases      map[string]string `yaml:"aliases,omitempty"`
}

// CacheConfig configures the Valkey embedding cache; an empty Addr disables it
type CacheConfig struct {
	Addr   string        `yaml:"addr,omitempty"`
	Prefix string        `yaml:"prefix,omitempty"`
	TTL    time.Duration `yaml:"ttl,omitempty"`
}

// BLEUConfig holds bleu arguments
type BLEUConfig struct {
	MaxOrder int  `yaml:"max_order,omitempty"`
	Smooth   bool `yaml:"smooth,omitempty"`
}

// SacreBLEUConfig holds sacrebleu arguments
type SacreBLEUConfig struct {
	SmoothMethod string   `yaml:"smooth_method,omitempty"`
	SmoothValue  *float64 `yaml:"smooth_value,omitempty"`
	Lowercase    bool     `yaml:"lowercase,omitempty"`
	Tokenize     string   `yaml:"tokenize,omitempty"`
}

// ChrFConfig holds chrf arguments
type ChrFConfig struct {
	CharOrder  int     `yaml:"char_order,omitempty"`
	WordOrder  int     `yaml:"word_order,omitempty"`
	Beta       float64 `yaml:"beta,omitempty"`
	Lowercase  bool    `yaml:"lowercase,omitempty"`
	Whitespace bool    `yaml:"whitespace,omitempty"`
}

// METEORConfig holds meteor arguments
type METEORConfig struct {
	Alpha           float64 `yaml:"alpha,omitempty"`
	Beta            float64 `yaml:"beta,omitempty"`
	Gamma           float64 `yaml:"gamma,omitempty"`
	DisableStemming bool    `yaml:"disable_stemming,omitempty"`
}

// BERTScoreConfig holds bertscore arguments
type BERTScoreConfig struct {
	Lang      string `yaml:"lang,omitempty"`
	ModelType string `yaml:"model_type,omitempty"`
	IDF       bool   `yaml:"idf,omitempty"`
	Window    int    `yaml:"window,omitempty"`
}

// BaryConfig holds bary arguments
type BaryConfig struct {
	DisableIDF bool `yaml:"disable_idf,omitempty"`
	Window     int  `yaml:"window,omitempty"`
}

// DepthConfig holds depth arguments
type DepthConfig struct {
	P          float64 `yaml:"p,omitempty"`
	Eps        float64 `yaml:"eps,omitempty"`
	NAlpha     int     `yaml:"n_alpha,omitempty"`
	Directions int     `yaml:"directions,omitempty"`
	Seed       uint64  `yaml:"seed,omitempty"`
	Window     int     `yaml:"window,omitempty"`
}

// InfoLMConfig holds infolm arguments
type InfoLMConfig struct {
	Measure     string   `yaml:"measure,omitempty"`
	Alpha       *float64 `yaml:"alpha,omitempty"`
	Beta        *float64 `yaml:"beta,omitempty"`
	Temperature float64  `yaml:"temperature,omitempty"`
	Window      int      `yaml:"window,omitempty"`
	DisableIDF  bool     `yaml:"disable_idf,omitempty"`
}

// MetricsConfig holds the arguments of every metric
type MetricsConfig struct {
	ModelName string          `yaml:"model_name,omitempty"`
	BLEU      BLEUConfig      `yaml:"bleu,omitempty"`
	SacreBLEU SacreBLEUConfig `yaml:"sacrebleu,omitempty"`
	ChrF      ChrFConfig      `yaml:"chrf,omitempty"`
	METEOR    METEORConfig    `yaml:"meteor,omitempty"`
	BERTScore BERTScoreConfig `yaml:"bertscore,omitempty"`
	Bary      BaryConfig      `yaml:"bary,omitempty"`
	Depth     DepthConfig     `yaml:"depth,omitempty"`
	InfoLM    InfoLMConfig    `yaml:"infolm,omitempty"`
}

// Config is the top-level configuration
type Config struct {
	Provider string        `yaml:"provider"`
	LogLevel string        `yaml:"log_level,omitempty"`
	Workers  int           `yaml:"workers,omitempty"`
	Gemini   GeminiConfig  `yaml:"gemini,omitempty"`
	Ollama   OllamaConfig  `yaml:"ollama,omitempty"`
	Cache    CacheConfig   `yaml:"cache,omitempty"`
	Metrics  MetricsConfig `yaml:"metrics,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Provider: ProviderGemini,
		LogLevel: defaultLevel,
		Cache:    CacheConfig{Prefix: "nlgeval:emb:"},
	}
}

// Load reads .env (when present), then path (when not empty), then applies environment overrides
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvProject); v != "" {
		c.Gemini.Project = v
	}
	if v := os.Getenv(EnvRegion); v != "" {
		c.Gemini.Location = v
	}
	if v := os.Getenv(EnvOllama); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv(EnvValkey); v != "" {
		c.Cache.Addr = v
	}
	return nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unknown provider %q, expected %s or %s", c.Provider, ProviderGemini, ProviderOllama)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative, got %s", c.Cache.TTL)
	}
	return c.Metrics.Validate()
}

// Validate rejects metric arguments the constructors would refuse at load time.
func (m MetricsConfig) Validate() error {
	if m.BERTScore.Window < 0 {
		return fmt.Errorf("metrics.bertscore.window must not be negative, got %d", m.BERTScore.Window)
	}
	if m.Bary.Window < 0 {
		return fmt.Errorf("metrics.bary.window must not be negative, got %d", m.Bary.Window)
	}

	opts := m.MetricOptions()
	if _, err := embedding.NewDepthScore(nil, opts.Depth); err != nil {
		return fmt.Errorf("metrics.depth: %w", err)
	}
	if _, err := embedding.NewInfoLM(nil, opts.InfoLM); err != nil {
		return fmt.Errorf("metrics.infolm: %w", err)
	}
	return nil
}

// MetricOptions converts the metric section into constructor arguments
func (m MetricsConfig) MetricOptions() nlgeval.MetricOptions {
	return nlgeval.MetricOptions{
		ModelName: m.ModelName,
		BLEU: heuristic.BLEUOptions{
			MaxOrder: m.BLEU.MaxOrder,
			Smooth:   m.BLEU.Smooth,
		},
		SacreBLEU: heuristic.SacreBLEUOptions{
			SmoothMethod: m.SacreBLEU.SmoothMethod,
			SmoothValue:  m.SacreBLEU.SmoothValue,
			Lowercase:    m.SacreBLEU.Lowercase,
			Tokenize:     m.SacreBLEU.Tokenize,
		},
		ChrF: heuristic.ChrFOptions{
			CharOrder:  m.ChrF.CharOrder,
			WordOrder:  m.ChrF.WordOrder,
			Beta:       m.ChrF.Beta,
			Lowercase:  m.ChrF.Lowercase,
			Whitespace: m.ChrF.Whitespace,
		},
		METEOR: heuristic.METEOROptions{
			Alpha:           m.METEOR.Alpha,
			Beta:            m.METEOR.Beta,
			Gamma:           m.METEOR.Gamma,
			DisableStemming: m.METEOR.DisableStemming,
		},
		BERTScore: embedding.BERTScoreOptions{
			Lang:      m.BERTScore.Lang,
			ModelType: m.BERTScore.ModelType,
			IDF:       m.BERTScore.IDF,
			Window:    m.BERTScore.Window,
		},
		Bary: embedding.BaryScoreOptions{
			DisableIDF: m.Bary.DisableIDF,
			Window:     m.Bary.Window,
		},
		Depth: embedding.DepthScoreOptions{
			P:          m.Depth.P,
			Eps:        m.Depth.Eps,
			NAlpha:     m.Depth.NAlpha,
			Directions: m.Depth.Directions,
			Seed:       m.Depth.Seed,
			Window:     m.Depth.Window,
		},
		InfoLM: embedding.InfoLMOptions{
			Measure:     m.InfoLM.Measure,
			Alpha:       m.InfoLM.Alpha,
			Beta:        m.InfoLM.Beta,
			Temperature: m.InfoLM.Temperature,
			Window:      m.InfoLM.Window,
			DisableIDF:  m.InfoLM.DisableIDF,
		},
	}
}
