package main

import (
	"context"
	"fmt"

	language "cloud.google.com/go/language/apiv1"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/datar-psa/nlgeval"
	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/cache"
	"github.com/datar-psa/nlgeval/config"
	"github.com/datar-psa/nlgeval/gemini"
	"github.com/datar-psa/nlgeval/ollama"
)

// runtime holds the clients built from the configuration
type runtime struct {
	options []func(*nlgeval.Options)
	closers []func()
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// setup builds the embedder provider, optional cache and tokenizer described by cfg.
func setup(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*runtime, error) {
	rt := &runtime{}

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Addr != "" {
		client, err := cache.DialValkey(cfg.Cache.Addr)
		if err != nil {
			return nil, fmt.Errorf("connect to valkey at %s: %w", cfg.Cache.Addr, err)
		}
		store := cache.NewValkeyStore(client, cfg.Cache.Prefix)
		rt.closers = append(rt.closers, store.Close)
		provider = cache.NewProvider(provider, store, cache.Options{TTL: cfg.Cache.TTL, Logger: logger})
		logger.Info("embedding cache enabled", zap.String("addr", cfg.Cache.Addr), zap.Duration("ttl", cfg.Cache.TTL))
	}

	rt.options = append(rt.options,
		nlgeval.WithEmbedderProvider(provider),
		nlgeval.WithLogger(logger),
		nlgeval.WithWorkers(cfg.Workers),
		nlgeval.WithMetricOptions(cfg.Metrics.MetricOptions()),
	)

	if cfg.Provider == config.ProviderGemini && cfg.Gemini.SyntaxTokenizer {
		client, err := language.NewClient(ctx)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("create language client: %w", err)
		}
		rt.closers = append(rt.closers, func() { client.Close() })
		rt.options = append(rt.options, nlgeval.WithTokenizer(gemini.NewSyntaxTokenizer(client, gemini.SyntaxTokenizerOptions{
			Lowercase: true,
			Language:  "en",
		})))
	}
	return rt, nil
}

func newProvider(ctx context.Context, cfg *config.Config) (api.EmbedderProvider, error) {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.NewProvider(ollama.Options{
			Host:         cfg.Ollama.Host,
			DefaultModel: cfg.Ollama.DefaultModel,
			Aliases:      cfg.Ollama.Aliases,
		})
	default:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			Backend:  genai.BackendVertexAI,
			Project:  cfg.Gemini.Project,
			Location: cfg.Gemini.Location,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		return gemini.NewProvider(client, gemini.ProviderOptions{
			DefaultModel: cfg.Gemini.DefaultModel,
			Aliases:      cfg.Gemini.Aliases,
		}), nil
	}
}
