// Package ollama provides embedders backed by a local or remote Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/ollama/ollama/api"

	nlgapi "github.com/datar-psa/nlgeval/api"
)

const (
	// DefaultModel is the embedding model used for encoder names without an alias
	DefaultModel = "nomic-embed-text"

	// DefaultHost is used when neither the options nor OLLAMA_HOST set a host
	DefaultHost = "http://localhost:11434"

	// HostEnv is the environment variable for the Ollama host
	HostEnv = "OLLAMA_HOST"
)

// Options configures the Ollama client shared by the embedders of a Provider
type Options struct {
	// Host is the server URL; defaults to OLLAMA_HOST, then DefaultHost
	Host string
	// HTTPClient defaults to http.DefaultClient
	HTTPClient *http.Client
	// DefaultModel replaces encoder names without an alias; defaults to DefaultModel
	DefaultModel string
	// Aliases maps encoder names (e.g. "distilbert-base-uncased") to Ollama models
	Aliases map[string]string
	// Truncate lets the server truncate inputs longer than the model context
	Truncate *bool
}

// Embedder implements api.BatchEmbedder over the /api/embed endpoint
type Embedder struct {
	client   *api.Client
	model    string
	truncate *bool
}

// NewEmbedder creates an embedder for one model using an existing client
func NewEmbedder(client *api.Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

// Model returns the Ollama model name
func (e *Embedder) Model() string {
	return e.model
}

// Embed implements api.Embedder
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch implements api.BatchEmbedder
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.client.Embed(ctx, &api.EmbedRequest{
		Model:    e.model,
		Input:    texts,
		Truncate: e.truncate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed with %s: %w", e.model, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, values := range resp.Embeddings {
		if len(values) == 0 {
			return nil, fmt.Errorf("empty embedding vector")
		}
		out[i] = make([]float64, len(values))
		for j, v := range values {
			out[i][j] = float64(v)
		}
	}
	return out, nil
}

// Provider resolves encoder names to Ollama embedders sharing one client
type Provider struct {
	client *api.Client
	opts   Options

	mu        sync.Mutex
	embedders map[string]*Embedder
}

// NewProvider creates a Provider, parsing the host URL
func NewProvider(opts Options) (*Provider, error) {
	if opts.Host == "" {
		opts.Host = os.Getenv(HostEnv)
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = DefaultModel
	}

	host := strings.TrimSpace(opts.Host)
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", opts.Host, err)
	}

	return &Provider{
		client:    api.NewClient(base, opts.HTTPClient),
		opts:      opts,
		embedders: make(map[string]*Embedder),
	}, nil
}

// Resolve maps an encoder name to the Ollama model that serves it
func (p *Provider) Resolve(model string) string {
	if alias, ok := p.opts.Aliases[model]; ok {
		return alias
	}
	// Ollama model references carry a tag or a namespace
	if strings.Contains(model, ":") {
		return model
	}
	return p.opts.DefaultModel
}

// Embedder implements api.EmbedderProvider
func (p *Provider) Embedder(model string) (nlgapi.Embedder, error) {
	name := p.Resolve(model)

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.embedders[name]; ok {
		return e, nil
	}
	e := NewEmbedder(p.client, name)
	e.truncate = p.opts.Truncate
	p.embedders[name] = e
	return e, nil
}

var (
	_ nlgapi.BatchEmbedder    = (*Embedder)(nil)
	_ nlgapi.EmbedderProvider = (*Provider)(nil)
)
