package nlgeval

import (
	language "cloud.google.com/go/language/apiv1"
	"google.golang.org/genai"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/embedding"
	"github.com/datar-psa/nlgeval/gemini"
	"github.com/datar-psa/nlgeval/heuristic"
)

// Embedding wraps an embedder provider and exposes convenient constructors for embedding-based scorers.
type Embedding struct {
	provider  api.EmbedderProvider
	tokenizer api.Tokenizer
}

// EmbeddingOptions configures Embedding creation
type EmbeddingOptions struct {
	provider  api.EmbedderProvider
	tokenizer api.Tokenizer
}

// WithEmbedder serves every model name with the same embedder
func WithEmbedder(embedder api.Embedder) func(*EmbeddingOptions) {
	return func(opts *EmbeddingOptions) {
		opts.provider = api.EmbedderProviderFunc(func(string) (api.Embedder, error) {
			return embedder, nil
		})
	}
}

// WithProvider sets the embedder provider
func WithProvider(provider api.EmbedderProvider) func(*EmbeddingOptions) {
	return func(opts *EmbeddingOptions) {
		opts.provider = provider
	}
}

// WithEmbeddingTokenizer sets the tokenizer used by token-level scorers
func WithEmbeddingTokenizer(tokenizer api.Tokenizer) func(*EmbeddingOptions) {
	return func(opts *EmbeddingOptions) {
		opts.tokenizer = tokenizer
	}
}

// NewEmbedding creates a new Embedding wrapper using functional options.
func NewEmbedding(opts ...func(*EmbeddingOptions)) *Embedding {
	options := &EmbeddingOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return &Embedding{provider: options.provider, tokenizer: options.tokenizer}
}

// GeminiOptions configures Gemini Embedding creation
type GeminiOptions struct {
	genaiClient *genai.Client
	modelName   string
	langClient  *language.Client
}

// WithGenaiClient sets the Gemini client
func WithGenaiClient(client *genai.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.genaiClient = client
	}
}

// WithModelName sets the Gemini embedding model used for every encoder name
func WithModelName(modelName string) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.modelName = modelName
	}
}

// WithLanguageClient tokenizes with Cloud Natural Language syntax analysis
func WithLanguageClient(langClient *language.Client) func(*GeminiOptions) {
	return func(opts *GeminiOptions) {
		opts.langClient = langClient
	}
}

// NewGeminiEmbedding creates an Embedding backed by Gemini embeddings.
// Example model: "text-embedding-005".
func NewGeminiEmbedding(opts ...func(*GeminiOptions)) *Embedding {
	options := &GeminiOptions{}
	for _, opt := range opts {
		opt(options)
	}

	var embeddingOptions []func(*EmbeddingOptions)

	// Only add a provider if genaiClient is provided
	if options.genaiClient != nil {
		embeddingOptions = append(embeddingOptions, WithProvider(gemini.NewProvider(options.genaiClient, gemini.ProviderOptions{
			DefaultModel: options.modelName,
		})))
	}
	if options.langClient != nil {
		embeddingOptions = append(embeddingOptions, WithEmbeddingTokenizer(gemini.NewSyntaxTokenizer(options.langClient, gemini.SyntaxTokenizerOptions{
			Lowercase: true,
		})))
	}

	return NewEmbedding(embeddingOptions...)
}

// Provider returns the embedder provider, for use with WithEmbedderProvider
func (e *Embedding) Provider() api.EmbedderProvider {
	return e.provider
}

// Tokenizer returns the configured tokenizer, nil when unset
func (e *Embedding) Tokenizer() api.Tokenizer {
	return e.tokenizer
}

type EmbeddingSimilarityOptions = embedding.EmbeddingSimilarityOptions

// Similarity returns a scorer that measures semantic similarity of pooled embeddings.
func (e *Embedding) Similarity(model string, opts EmbeddingSimilarityOptions) (api.Scorer, error) {
	embedder, err := e.embedder(model)
	if err != nil {
		return nil, err
	}
	return embedding.EmbeddingSimilarity(embedder, opts), nil
}

type BERTScoreOptions = embedding.BERTScoreOptions

// BERTScore returns a batch scorer computing BERTScore precision, recall and f1.
func (e *Embedding) BERTScore(opts BERTScoreOptions) api.BatchScorer {
	if opts.Tokenizer == nil {
		opts.Tokenizer = e.tokenizer
	}
	return embedding.BERTScore(e.provider, opts)
}

type BaryScoreOptions = embedding.BaryScoreOptions

// BaryScore returns the BaryScore measure on the named encoder.
func (e *Embedding) BaryScore(model string, opts BaryScoreOptions) (*embedding.BaryScore, error) {
	embedder, err := e.embedder(model)
	if err != nil {
		return nil, err
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = e.tokenizer
	}
	return embedding.NewBaryScore(embedder, opts), nil
}

type DepthScoreOptions = embedding.DepthScoreOptions

// DepthScore returns the DepthScore measure on the named encoder.
func (e *Embedding) DepthScore(model string, opts DepthScoreOptions) (*embedding.DepthScore, error) {
	embedder, err := e.embedder(model)
	if err != nil {
		return nil, err
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = e.tokenizer
	}
	return embedding.NewDepthScore(embedder, opts)
}

type InfoLMOptions = embedding.InfoLMOptions

// InfoLM returns the InfoLM measure on the named encoder.
func (e *Embedding) InfoLM(model string, opts InfoLMOptions) (*embedding.InfoLM, error) {
	embedder, err := e.embedder(model)
	if err != nil {
		return nil, err
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = e.tokenizer
	}
	return embedding.NewInfoLM(embedder, opts)
}

func (e *Embedding) embedder(model string) (api.Embedder, error) {
	if e.provider == nil {
		return nil, ErrNoEmbedder
	}
	if model == "" {
		model = embedding.DefaultModel
	}
	return e.provider.Embedder(model)
}

// Heuristic exposes convenient constructors for n-gram scorers.
type Heuristic struct{}

// NewHeuristic creates a new Heuristic.
func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

type ExactMatchOptions = heuristic.ExactMatchOptions

// ExactMatch returns a scorer that checks if the output exactly matches the expected value.
func (h *Heuristic) ExactMatch(opts ExactMatchOptions) api.Scorer {
	return heuristic.ExactMatch(opts)
}

type BLEUOptions = heuristic.BLEUOptions

// BLEU returns a scorer computing sentence BLEU.
func (h *Heuristic) BLEU(opts BLEUOptions) api.Scorer {
	return heuristic.BLEU(opts)
}

type SacreBLEUOptions = heuristic.SacreBLEUOptions

// SacreBLEU returns a scorer computing sacreBLEU on a 0-100 scale.
func (h *Heuristic) SacreBLEU(opts SacreBLEUOptions) api.Scorer {
	return heuristic.SacreBLEU(opts)
}

type ChrFOptions = heuristic.ChrFOptions

// ChrF returns a scorer computing chrF (chrF++ with WordOrder 2).
func (h *Heuristic) ChrF(opts ChrFOptions) api.Scorer {
	return heuristic.ChrF(opts)
}

type METEOROptions = heuristic.METEOROptions

// METEOR returns a scorer computing METEOR with exact and stem alignment.
func (h *Heuristic) METEOR(opts METEOROptions) api.Scorer {
	return heuristic.METEOR(opts)
}
