package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/datar-psa/nlgeval/api"
)

// DefaultModel is the encoder used when a metric is not told which model to use.
const DefaultModel = "distilbert-base-uncased"

// langModels maps a language code to the default encoder used for it.
var langModels = map[string]string{
	"en":     "roberta-large",
	"zh":     "bert-base-chinese",
	"tr":     "dbmdz/bert-base-turkish-cased",
	"en-sci": "allenai/scibert_scivocab_uncased",
}

const multilingualModel = "bert-base-multilingual-cased"

// BERTScoreOptions configures the BERTScore scorer
type BERTScoreOptions struct {
	// Lang selects a default encoder when ModelType is empty
	Lang string
	// ModelType is the encoder name resolved through the provider
	ModelType string
	// IDF weights tokens by inverse document frequency over the references
	IDF bool
	// Tokenizer overrides the default lowercasing word tokenizer
	Tokenizer api.Tokenizer
	// Window is the context window embedded with each token
	Window int
}

// ModelFor returns the encoder BERTScore uses for the given options,
// or an error when neither a language nor a model is set.
func ModelFor(opts BERTScoreOptions) (string, error) {
	if opts.ModelType != "" {
		return opts.ModelType, nil
	}
	if opts.Lang == "" {
		return "", fmt.Errorf("either lang or model_type should be specified")
	}
	if m, ok := langModels[strings.ToLower(opts.Lang)]; ok {
		return m, nil
	}
	return multilingualModel, nil
}

// BERTScore returns a batch scorer computing BERTScore precision, recall and F1
// by greedy cosine matching of token embeddings.
func BERTScore(provider api.EmbedderProvider, opts BERTScoreOptions) api.BatchScorer {
	return &bertScorer{provider: provider, opts: opts}
}

type bertScorer struct {
	provider api.EmbedderProvider
	opts     BERTScoreOptions
}

var _ api.BatchScorer = (*bertScorer)(nil)

func (s *bertScorer) ScoreBatch(ctx context.Context, references, predictions []string) (map[string][]float64, error) {
	if len(references) != len(predictions) {
		return nil, api.ErrLengthMismatch
	}
	if s.provider == nil {
		return nil, api.ErrNoEmbedder
	}
	model, err := ModelFor(s.opts)
	if err != nil {
		return nil, err
	}
	embedder, err := s.provider.Embedder(model)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve embedder for %s: %w", model, err)
	}

	te := NewTokenEmbedder(embedder, TokenEmbedderOptions{Tokenizer: s.opts.Tokenizer, Window: s.opts.Window})

	all := make([]string, 0, len(references)+len(predictions))
	all = append(all, references...)
	all = append(all, predictions...)
	embedded, err := te.EmbedTokens(ctx, all)
	if err != nil {
		return nil, err
	}
	refs, hyps := embedded[:len(references)], embedded[len(references):]

	var idf *IDF
	if s.opts.IDF {
		docs := make([][]string, len(refs))
		for i := range refs {
			docs[i] = refs[i].Tokens
		}
		idf = ComputeIDF(docs)
	}

	out := map[string][]float64{
		"precision": make([]float64, len(references)),
		"recall":    make([]float64, len(references)),
		"f1":        make([]float64, len(references)),
	}
	for i := range refs {
		p, r, f := greedyMatch(refs[i], hyps[i], idf)
		out["precision"][i] = p
		out["recall"][i] = r
		out["f1"][i] = f
	}
	return out, nil
}

// greedyMatch matches every token to its most similar counterpart on the other side.
func greedyMatch(ref, hyp TokenEmbeddings, idf *IDF) (precision, recall, f1 float64) {
	if len(ref.Vectors) == 0 || len(hyp.Vectors) == 0 {
		return 0, 0, 0
	}

	sim := make([][]float64, len(hyp.Vectors))
	for i, h := range hyp.Vectors {
		sim[i] = make([]float64, len(ref.Vectors))
		for j, r := range ref.Vectors {
			sim[i][j] = cosineSimilarity(h, r)
		}
	}

	hypW := normalizeWeights(idf.Weights(hyp.Tokens))
	refW := normalizeWeights(idf.Weights(ref.Tokens))

	for i := range hyp.Vectors {
		best := sim[i][0]
		for j := 1; j < len(ref.Vectors); j++ {
			best = max(best, sim[i][j])
		}
		precision += hypW[i] * best
	}
	for j := range ref.Vectors {
		best := sim[0][j]
		for i := 1; i < len(hyp.Vectors); i++ {
			best = max(best, sim[i][j])
		}
		recall += refW[j] * best
	}

	if precision+recall == 0 {
		return precision, recall, 0
	}
	return precision, recall, 2 * precision * recall / (precision + recall)
}
