package gemini

import (
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/datar-psa/nlgeval/api"
)

// DefaultEmbeddingModel is used for model names the provider has no alias for
const DefaultEmbeddingModel = "text-embedding-005"

// ProviderOptions configures the Gemini embedder provider
type ProviderOptions struct {
	// DefaultModel replaces encoder names that are not Gemini models; defaults to DefaultEmbeddingModel
	DefaultModel string
	// Aliases maps encoder names (e.g. "roberta-large") to Gemini embedding models
	Aliases map[string]string
}

// Provider resolves encoder names to Gemini embedders sharing one client
type Provider struct {
	client *genai.Client
	opts   ProviderOptions

	mu        sync.Mutex
	embedders map[string]*Embedder
}

// NewProvider creates a Gemini embedder provider
func NewProvider(client *genai.Client, opts ProviderOptions) *Provider {
	if opts.DefaultModel == "" {
		opts.DefaultModel = DefaultEmbeddingModel
	}
	return &Provider{
		client:    client,
		opts:      opts,
		embedders: make(map[string]*Embedder),
	}
}

// Resolve maps an encoder name to the Gemini model that serves it
func (p *Provider) Resolve(model string) string {
	if alias, ok := p.opts.Aliases[model]; ok {
		return alias
	}
	if isGeminiModel(model) {
		return model
	}
	return p.opts.DefaultModel
}

// Embedder implements api.EmbedderProvider
func (p *Provider) Embedder(model string) (api.Embedder, error) {
	name := p.Resolve(model)

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.embedders[name]; ok {
		return e, nil
	}
	e := NewEmbedder(p.client, name)
	p.embedders[name] = e
	return e, nil
}

func isGeminiModel(model string) bool {
	for _, prefix := range []string{"text-embedding-", "text-multilingual-embedding-", "gemini-embedding-"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

var _ api.EmbedderProvider = (*Provider)(nil)
