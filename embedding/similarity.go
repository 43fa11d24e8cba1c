package embedding

import (
	"context"
	"fmt"

	"github.com/datar-psa/nlgeval/api"
)

// EmbeddingSimilarityOptions configures the EmbeddingSimilarity scorer
type EmbeddingSimilarityOptions struct {
	// Raw skips the [-1,1] to [0,1] mapping and reports the cosine itself as Score
	Raw bool
}

// EmbeddingSimilarity returns a scorer that measures semantic similarity using embeddings
// It computes cosine similarity between the output and expected text embeddings,
// requesting both in one call when the embedder is an api.BatchEmbedder.
func EmbeddingSimilarity(embedder api.Embedder, opts EmbeddingSimilarityOptions) api.Scorer {
	return &embeddingSimilarityScorer{embedder: embedder, opts: opts}
}

type embeddingSimilarityScorer struct {
	embedder api.Embedder
	opts     EmbeddingSimilarityOptions
}

func (s *embeddingSimilarityScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "EmbeddingSimilarity",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	if s.embedder == nil {
		result.Error = api.ErrNoEmbedder
		result.Score = 0
		return result
	}

	vectors, err := embedMany(ctx, s.embedder, []string{in.Output, in.Expected})
	if err != nil {
		result.Error = fmt.Errorf("failed to embed pair: %w", err)
		result.Score = 0
		return result
	}
	outputEmbed, expectedEmbed := vectors[0], vectors[1]

	similarity := cosineSimilarity(outputEmbed, expectedEmbed)

	result.Metadata["cosine_similarity"] = similarity
	result.Metadata["embedding_dim"] = len(outputEmbed)

	if s.opts.Raw {
		result.Score = similarity
		return result
	}

	// Normalize from [-1, 1] to [0, 1]
	result.Score = min(1, max(0, (similarity+1.0)/2.0))
	return result
}
