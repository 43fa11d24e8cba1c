package nlgeval

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/embedding"
	"github.com/datar-psa/nlgeval/heuristic"
	"github.com/datar-psa/nlgeval/internal/log"
)

// MetricOptions holds the constructor arguments of every metric
type MetricOptions struct {
	BLEU       heuristic.BLEUOptions
	SacreBLEU  heuristic.SacreBLEUOptions
	ChrF       heuristic.ChrFOptions
	METEOR     heuristic.METEOROptions
	ExactMatch heuristic.ExactMatchOptions

	BERTScore embedding.BERTScoreOptions
	Cosine    embedding.EmbeddingSimilarityOptions

	// ModelName is the encoder of bary, depth, infolm and cosine; defaults to distilbert-base-uncased
	ModelName string
	Bary      embedding.BaryScoreOptions
	Depth     embedding.DepthScoreOptions
	InfoLM    embedding.InfoLMOptions
}

// Options configures metric construction
type Options struct {
	provider      api.EmbedderProvider
	tokenizer     api.Tokenizer
	workers       int
	logger        *zap.Logger
	metricOptions MetricOptions
}

// WithEmbedderProvider sets the provider resolving encoder names to embedders
func WithEmbedderProvider(provider api.EmbedderProvider) func(*Options) {
	return func(opts *Options) {
		opts.provider = provider
	}
}

// WithTokenizer sets the tokenizer of every metric whose own options leave it unset
func WithTokenizer(tokenizer api.Tokenizer) func(*Options) {
	return func(opts *Options) {
		opts.tokenizer = tokenizer
	}
}

// WithWorkers sets how many pairs a per-pair metric scores concurrently
func WithWorkers(workers int) func(*Options) {
	return func(opts *Options) {
		opts.workers = workers
	}
}

// WithLogger sets the logger used for progress reporting
func WithLogger(logger *zap.Logger) func(*Options) {
	return func(opts *Options) {
		opts.logger = logger
	}
}

// WithMetricOptions sets the constructor arguments of the metrics
func WithMetricOptions(metricOptions MetricOptions) func(*Options) {
	return func(opts *Options) {
		opts.metricOptions = metricOptions
	}
}

func newOptions(opts []func(*Options)) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	if options.workers <= 0 {
		options.workers = runtime.GOMAXPROCS(0)
	}
	if options.logger == nil {
		options.logger = log.Default
	}
	if options.metricOptions.ModelName == "" {
		options.metricOptions.ModelName = embedding.DefaultModel
	}

	m := &options.metricOptions
	if options.tokenizer != nil {
		if m.METEOR.Tokenizer == nil {
			m.METEOR.Tokenizer = options.tokenizer
		}
		if m.BERTScore.Tokenizer == nil {
			m.BERTScore.Tokenizer = options.tokenizer
		}
		if m.Bary.Tokenizer == nil {
			m.Bary.Tokenizer = options.tokenizer
		}
		if m.Depth.Tokenizer == nil {
			m.Depth.Tokenizer = options.tokenizer
		}
		if m.InfoLM.Tokenizer == nil {
			m.InfoLM.Tokenizer = options.tokenizer
		}
	}
	return options
}

// embedder resolves model through the configured provider.
func (o *Options) embedder(model string) (api.Embedder, error) {
	if o.provider == nil {
		return nil, ErrNoEmbedder
	}
	return o.provider.Embedder(model)
}
