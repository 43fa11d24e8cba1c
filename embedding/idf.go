package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/datar-psa/nlgeval/api"
)

// IDF holds inverse document frequencies computed over a corpus.
// Weights follow bert_score: log((M+1)/(df+1)), and log(M+1) for unseen tokens.
type IDF struct {
	weights map[string]float64
	unseen  float64
}

// ComputeIDF computes document frequencies over already tokenized documents.
func ComputeIDF(docs [][]string) *IDF {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	m := float64(len(docs))
	idf := &IDF{
		weights: make(map[string]float64, len(df)),
		unseen:  math.Log(m + 1),
	}
	for tok, c := range df {
		idf.weights[tok] = math.Log((m + 1) / (float64(c) + 1))
	}
	return idf
}

// ComputeIDFTexts tokenizes texts and computes their IDF.
func ComputeIDFTexts(ctx context.Context, tokenizer api.Tokenizer, texts []string) (*IDF, error) {
	docs := make([][]string, len(texts))
	for i, text := range texts {
		tokens, err := tokenizer.Tokenize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to tokenize document %d: %w", i, err)
		}
		docs[i] = tokens
	}
	return ComputeIDF(docs), nil
}

// Weight returns the idf of a token
func (d *IDF) Weight(token string) float64 {
	if w, ok := d.weights[token]; ok {
		return w
	}
	return d.unseen
}

// Weights returns the idf of each token; a nil IDF gives uniform weights of one.
func (d *IDF) Weights(tokens []string) []float64 {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		if d == nil {
			out[i] = 1
			continue
		}
		out[i] = d.Weight(tok)
	}
	return out
}
