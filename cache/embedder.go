package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/internal/log"
)

// Options configures the caching embedders
type Options struct {
	// TTL expires cached vectors; zero keeps them forever
	TTL time.Duration
	// Logger reports store failures, which never fail an embedding call
	Logger *zap.Logger
}

// Embedder caches the vectors of another embedder, keyed by model and text hash
type Embedder struct {
	next  api.Embedder
	store Store
	model string
	opts  Options
}

// NewEmbedder wraps next; model namespaces the keys
func NewEmbedder(next api.Embedder, store Store, model string, opts Options) *Embedder {
	if opts.Logger == nil {
		opts.Logger = log.Default
	}
	return &Embedder{next: next, store: store, model: model, opts: opts}
}

// Key returns the store key for text
func (e *Embedder) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return e.model + ":" + hex.EncodeToString(sum[:])
}

// Embed implements api.Embedder
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if v, ok := e.lookup(ctx, text); ok {
		return v, nil
	}
	v, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.save(ctx, text, v)
	return v, nil
}

// EmbedBatch implements api.BatchEmbedder, sending only cache misses to the wrapped embedder
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	var (
		missIdx   []int
		missTexts []string
	)
	for i, text := range texts {
		if v, ok := e.lookup(ctx, text); ok {
			out[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	var vectors [][]float64
	if batcher, ok := e.next.(api.BatchEmbedder); ok {
		var err error
		vectors, err = batcher.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missTexts) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
		}
	} else {
		vectors = make([][]float64, len(missTexts))
		for i, text := range missTexts {
			v, err := e.next.Embed(ctx, text)
			if err != nil {
				return nil, err
			}
			vectors[i] = v
		}
	}

	for k, i := range missIdx {
		out[i] = vectors[k]
		e.save(ctx, missTexts[k], vectors[k])
	}
	return out, nil
}

func (e *Embedder) lookup(ctx context.Context, text string) ([]float64, bool) {
	b, ok, err := e.store.Get(ctx, e.Key(text))
	if err != nil {
		e.opts.Logger.Warn("embedding cache read failed", zap.String("model", e.model), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	v, err := decode(b)
	if err != nil {
		e.opts.Logger.Warn("discarding corrupt cache entry", zap.String("model", e.model), zap.Error(err))
		return nil, false
	}
	return v, true
}

func (e *Embedder) save(ctx context.Context, text string, v []float64) {
	if err := e.store.Set(ctx, e.Key(text), encode(v), e.opts.TTL); err != nil {
		e.opts.Logger.Warn("embedding cache write failed", zap.String("model", e.model), zap.Error(err))
	}
}

// Provider wraps every embedder of another provider in a cache
type Provider struct {
	next  api.EmbedderProvider
	store Store
	opts  Options
}

// NewProvider creates a caching provider
func NewProvider(next api.EmbedderProvider, store Store, opts Options) *Provider {
	return &Provider{next: next, store: store, opts: opts}
}

// Embedder implements api.EmbedderProvider
func (p *Provider) Embedder(model string) (api.Embedder, error) {
	e, err := p.next.Embedder(model)
	if err != nil {
		return nil, err
	}
	return NewEmbedder(e, p.store, model, p.opts), nil
}

// encode packs v as little-endian float64s.
func encode(v []float64) []byte {
	b := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(x))
	}
	return b
}

func decode(b []byte) ([]float64, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("cached vector has %d bytes, not a multiple of 8", len(b))
	}
	v := make([]float64, len(b)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return v, nil
}

var (
	_ api.BatchEmbedder    = (*Embedder)(nil)
	_ api.EmbedderProvider = (*Provider)(nil)
)
