package embedding

import (
	"context"
	"testing"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/internal/testutils"
)

// TestEmbeddingSimilarity_Integration scores paraphrases and unrelated pairs with Gemini sentence embeddings.
// Requests are replayed from hypert recordings.
func TestEmbeddingSimilarity_Integration(t *testing.T) {
	testutils.SkipWithoutRecordings(t, "embedding")

	ctx := context.Background()
	embedder := testutils.NewGeminiEmbedder(t, testutils.DefaultGeminiTestConfig("embedding"), "text-embedding-005")
	scorer := EmbeddingSimilarity(embedder, EmbeddingSimilarityOptions{})

	tests := []struct {
		name     string
		output   string
		expected string
		minScore float64
		maxScore float64
	}{
		{"identical", "I hate these cakes!", "I hate these cakes!", 0.95, 1},
		{"paraphrase", "I adore my cakes", "I like my cakes very much", 0.85, 1},
		{"same topic opposite sentiment", "These cakes are bad!", "I like my cakes very much", 0.6, 0.95},
		{"unrelated", "I adore my cakes", "The train leaves at noon", 0, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(ctx, api.ScoreInputs{Output: tt.output, Expected: tt.expected})
			if result.Error != nil {
				t.Fatalf("EmbeddingSimilarity.Score() unexpected error = %v", result.Error)
			}
			if result.Score < tt.minScore || result.Score > tt.maxScore {
				t.Errorf("EmbeddingSimilarity.Score() score = %v, want between %v and %v (cosine %v)",
					result.Score, tt.minScore, tt.maxScore, result.Metadata["cosine_similarity"])
			}
		})
	}
}

// TestBERTScore_Integration scores the demo pairs with Gemini token embeddings
func TestBERTScore_Integration(t *testing.T) {
	testutils.SkipWithoutRecordings(t, "bertscore")

	ctx := context.Background()
	provider := testutils.NewGeminiProvider(t, testutils.DefaultGeminiTestConfig("bertscore"))

	refs := []string{"I like my cakes very much", "I hate these cakes!"}
	preds := []string{"I adore my cakes", "These cakes are bad!"}

	got, err := BERTScore(provider, BERTScoreOptions{ModelType: DefaultModel}).ScoreBatch(ctx, refs, preds)
	if err != nil {
		t.Fatalf("BERTScore.ScoreBatch() unexpected error = %v", err)
	}
	for i, f1 := range got["f1"] {
		if f1 <= 0.5 || f1 > 1 {
			t.Errorf("BERTScore f1[%d] = %v, want in (0.5, 1]", i, f1)
		}
	}
}
