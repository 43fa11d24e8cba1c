package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/datar-psa/nlgeval/api"
)

// maxBatch is the largest number of contents sent in one EmbedContent call.
const maxBatch = 250

// Embedder wraps a genai.Client to implement the Embedder interface
type Embedder struct {
	client    *genai.Client
	modelName string
	config    *genai.EmbedContentConfig
}

// NewEmbedder creates a new Gemini embedder
// client: genai.Client from google.golang.org/genai
// modelName: the embedding model to use (e.g., "text-embedding-005")
func NewEmbedder(client *genai.Client, modelName string) *Embedder {
	return &Embedder{
		client:    client,
		modelName: modelName,
		config:    &genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"},
	}
}

// Model returns the Gemini model name
func (e *Embedder) Model() string {
	return e.modelName
}

// Embed implements Embedder.Embed
// Note: This uses the Embedding API which is separate from the text generation API
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements BatchEmbedder.EmbedBatch, splitting large inputs into several requests
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if e.client == nil {
		return nil, fmt.Errorf("genai client is required")
	}

	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += maxBatch {
		end := min(len(texts), start+maxBatch)

		contents := make([]*genai.Content, 0, end-start)
		for _, text := range texts[start:end] {
			contents = append(contents, &genai.Content{
				Parts: []*genai.Part{
					{Text: text},
				},
			})
		}

		result, err := e.client.Models.EmbedContent(ctx, e.modelName, contents, e.config)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding: %w", err)
		}

		if len(result.Embeddings) != len(contents) {
			return nil, fmt.Errorf("expected %d embeddings, got %d", len(contents), len(result.Embeddings))
		}

		for _, emb := range result.Embeddings {
			if emb == nil || len(emb.Values) == 0 {
				return nil, fmt.Errorf("empty embedding vector")
			}
			out = append(out, toFloat64(emb.Values))
		}
	}
	return out, nil
}

func toFloat64(values []float32) []float64 {
	embedding := make([]float64, len(values))
	for i, v := range values {
		embedding[i] = float64(v)
	}
	return embedding
}

// Verify that Embedder implements api.BatchEmbedder
var _ api.BatchEmbedder = (*Embedder)(nil)
