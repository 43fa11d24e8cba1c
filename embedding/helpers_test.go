package embedding

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"sync"

	"github.com/datar-psa/nlgeval/api"
)

// hashEmbedder returns a deterministic pseudo-random vector per text.
type hashEmbedder struct {
	dim int

	mu      sync.Mutex
	texts   []string
	batches []int
}

func (h *hashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	h.mu.Lock()
	h.texts = append(h.texts, text)
	h.mu.Unlock()

	f := fnv.New64a()
	f.Write([]byte(text))
	seed := f.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed))
	v := make([]float64, h.dim)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return v, nil
}

func (h *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	h.mu.Lock()
	h.batches = append(h.batches, len(texts))
	h.mu.Unlock()

	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// providerFor returns a provider handing out embedder and recording requested models.
func providerFor(embedder api.Embedder, models *[]string) api.EmbedderProvider {
	return api.EmbedderProviderFunc(func(model string) (api.Embedder, error) {
		*models = append(*models, model)
		return embedder, nil
	})
}
