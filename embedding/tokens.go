package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/tokenize"
)

// DefaultMask is the placeholder substituted for a masked token in context windows.
const DefaultMask = "[MASK]"

// batchSize bounds the number of texts sent in one EmbedBatch call.
const batchSize = 64

// TokenEmbedderOptions configures a TokenEmbedder
type TokenEmbedderOptions struct {
	// Tokenizer splits text into tokens; defaults to a lowercasing word tokenizer
	Tokenizer api.Tokenizer
	// Window is the number of neighbouring tokens on each side embedded with a token.
	// 0 embeds every token on its own.
	Window int
}

// TokenEmbeddings holds the tokens of one text and a unit vector per token.
type TokenEmbeddings struct {
	Tokens  []string
	Vectors [][]float64
}

// TokenEmbedder derives per-token vectors from a sentence-level Embedder by embedding
// each token, optionally together with its neighbours. Identical spans are embedded once.
type TokenEmbedder struct {
	embedder api.Embedder
	opts     TokenEmbedderOptions
}

// NewTokenEmbedder creates a TokenEmbedder
func NewTokenEmbedder(embedder api.Embedder, opts TokenEmbedderOptions) *TokenEmbedder {
	if opts.Tokenizer == nil {
		opts.Tokenizer = tokenize.NewWords(tokenize.WordsOptions{Lowercase: true})
	}
	if opts.Window < 0 {
		opts.Window = 0
	}
	return &TokenEmbedder{embedder: embedder, opts: opts}
}

// Tokenizer returns the tokenizer used for every text
func (e *TokenEmbedder) Tokenizer() api.Tokenizer {
	return e.opts.Tokenizer
}

// Tokenize tokenizes every text
func (e *TokenEmbedder) Tokenize(ctx context.Context, texts []string) ([][]string, error) {
	out := make([][]string, len(texts))
	for i, text := range texts {
		tokens, err := e.opts.Tokenizer.Tokenize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize text %d: %w", i, err)
		}
		out[i] = tokens
	}
	return out, nil
}

// EmbedTokens returns token embeddings for every text, in input order.
func (e *TokenEmbedder) EmbedTokens(ctx context.Context, texts []string) ([]TokenEmbeddings, error) {
	tokenized, err := e.Tokenize(ctx, texts)
	if err != nil {
		return nil, err
	}
	return e.embedSpans(ctx, tokenized, func(tokens []string, i int) string {
		return span(tokens, i, e.opts.Window, "")
	})
}

// EmbedMasked returns, for every token of every text, the embedding of its context window
// with the token itself replaced by mask.
func (e *TokenEmbedder) EmbedMasked(ctx context.Context, tokenized [][]string, window int, mask string) ([]TokenEmbeddings, error) {
	if mask == "" {
		mask = DefaultMask
	}
	return e.embedSpans(ctx, tokenized, func(tokens []string, i int) string {
		return span(tokens, i, window, mask)
	})
}

// EmbedWords embeds single words, returning unit vectors in input order.
func (e *TokenEmbedder) EmbedWords(ctx context.Context, words []string) ([][]float64, error) {
	vectors, err := embedMany(ctx, e.embedder, words)
	if err != nil {
		return nil, err
	}
	for i := range vectors {
		vectors[i] = normalized(vectors[i])
	}
	return vectors, nil
}

func (e *TokenEmbedder) embedSpans(ctx context.Context, tokenized [][]string, spanFn func([]string, int) string) ([]TokenEmbeddings, error) {
	if e.embedder == nil {
		return nil, api.ErrNoEmbedder
	}

	index := make(map[string]int)
	var spans []string
	for _, tokens := range tokenized {
		for i := range tokens {
			s := spanFn(tokens, i)
			if _, ok := index[s]; !ok {
				index[s] = len(spans)
				spans = append(spans, s)
			}
		}
	}

	vectors, err := embedMany(ctx, e.embedder, spans)
	if err != nil {
		return nil, err
	}

	out := make([]TokenEmbeddings, len(tokenized))
	for t, tokens := range tokenized {
		out[t].Tokens = tokens
		out[t].Vectors = make([][]float64, len(tokens))
		for i := range tokens {
			out[t].Vectors[i] = normalized(vectors[index[spanFn(tokens, i)]])
		}
	}
	return out, nil
}

// span joins tokens[i-window:i+window+1], replacing token i by mask when mask is set.
func span(tokens []string, i, window int, mask string) string {
	lo := max(0, i-window)
	hi := min(len(tokens), i+window+1)
	parts := make([]string, 0, hi-lo)
	for j := lo; j < hi; j++ {
		if j == i && mask != "" {
			parts = append(parts, mask)
			continue
		}
		parts = append(parts, tokens[j])
	}
	return strings.Join(parts, " ")
}

// embedMany embeds texts, using EmbedBatch when the embedder supports it.
func embedMany(ctx context.Context, embedder api.Embedder, texts []string) ([][]float64, error) {
	if embedder == nil {
		return nil, api.ErrNoEmbedder
	}
	out := make([][]float64, 0, len(texts))

	if batcher, ok := embedder.(api.BatchEmbedder); ok {
		for start := 0; start < len(texts); start += batchSize {
			end := min(len(texts), start+batchSize)
			vectors, err := batcher.EmbedBatch(ctx, texts[start:end])
			if err != nil {
				return nil, fmt.Errorf("failed to embed batch: %w", err)
			}
			if len(vectors) != end-start {
				return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), end-start)
			}
			out = append(out, vectors...)
		}
		return out, nil
	}

	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed %q: %w", text, err)
		}
		out = append(out, v)
	}
	return out, nil
}
