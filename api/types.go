package api

import (
	"context"
	"errors"
)

var (
	// ErrNoExpectedValue is returned when an expected value is required but not provided
	ErrNoExpectedValue = errors.New("expected value is required for this scorer")
	// ErrLengthMismatch is returned when references and predictions are not parallel
	ErrLengthMismatch = errors.New("the number of references and predictions should be the same")
	// ErrUnknownMetric is returned when a metric name is not in the catalogue
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrNoEmbedder is returned when an embedding-based scorer has no embedder configured
	ErrNoEmbedder = errors.New("embedder is required")
)

// Embedder generates vector embeddings for text
type Embedder interface {
	// Embed generates an embedding vector for the given text
	// Returns a normalized vector (length = 1) suitable for cosine similarity
	Embed(ctx context.Context, text string) ([]float64, error)
}

// BatchEmbedder is implemented by embedders that can embed several texts in one request.
// Scorers type-assert for it and fall back to Embed otherwise.
type BatchEmbedder interface {
	Embedder
	// EmbedBatch returns one vector per text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// EmbedderProvider resolves a model name to an Embedder.
// Model names are the logical names used in metric options (e.g. "distilbert-base-uncased");
// providers map them onto their own model identifiers.
type EmbedderProvider interface {
	Embedder(model string) (Embedder, error)
}

// EmbedderProviderFunc adapts a function to EmbedderProvider
type EmbedderProviderFunc func(model string) (Embedder, error)

// Embedder implements EmbedderProvider
func (f EmbedderProviderFunc) Embedder(model string) (Embedder, error) {
	return f(model)
}

// Tokenizer splits text into tokens.
// Implementations backed by remote services use ctx for the request.
type Tokenizer interface {
	Tokenize(ctx context.Context, text string) ([]string, error)
}

// Score represents the result of an evaluation
type Score struct {
	// Name identifies the scorer that produced this result
	Name string
	// Score is a value between 0 and 1, where 1 is the best possible score
	Score float64
	// Metadata contains additional information about the scoring process.
	// Metric scorers store their library-style result fields here (e.g. "bleu", "score", "meteor").
	Metadata map[string]any
	// Error contains any error that occurred during scoring
	Error error
}

// ScoreInputs carries inputs for scoring across different scorers.
//
// Fields usage conventions:
// - Output:   the prediction produced by the model (required)
// - Expected: the reference text (required by every metric scorer)
// - Input:    the original prompt/context/question given to the model (optional)
type ScoreInputs struct {
	Output   string
	Expected string
	Input    string
}

// Scorer evaluates the quality of an output
type Scorer interface {
	// Score evaluates the output and returns a score
	// in: container for output/expected/input depending on scorer needs
	Score(ctx context.Context, in ScoreInputs) Score
}

// BatchScorer scores parallel lists of references and predictions in one call.
// The result maps field names (e.g. "precision", "recall", "f1") to one value per example.
type BatchScorer interface {
	ScoreBatch(ctx context.Context, references, predictions []string) (map[string][]float64, error)
}

// SimilarityMeasure is an embedding-space measure that needs corpus idf statistics
// before it can evaluate a batch.
type SimilarityMeasure interface {
	// PrepareIDFs computes inverse document frequencies over the references and predictions
	PrepareIDFs(ctx context.Context, references, predictions []string) error
	// EvaluateBatch returns named result fields, one value per example
	EvaluateBatch(ctx context.Context, references, predictions []string) (map[string][]float64, error)
}

// MeasureSelector is implemented by similarity measures whose result field depends on configuration.
type MeasureSelector interface {
	MeasureToUse() string
}
