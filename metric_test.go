package nlgeval

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/embedding"
	"github.com/datar-psa/nlgeval/heuristic"
	"github.com/datar-psa/nlgeval/internal/log"
)

const epsilon = 1e-4

var (
	demoRefs  = []string{"I like my cakes very much", "I hate these cakes!"}
	demoPreds = []string{"I adore my cakes", "These cakes are bad!"}
)

type hashEmbedder struct{}

func (hashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f := fnv.New64a()
	f.Write([]byte(text))
	seed := f.Sum64()
	rng := rand.New(rand.NewPCG(seed, seed))
	v := make([]float64, 16)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	return v, nil
}

// recordingProvider serves hashEmbedder and records requested models
type recordingProvider struct {
	mu     sync.Mutex
	models []string
}

func (p *recordingProvider) Embedder(model string) (api.Embedder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.models = append(p.models, model)
	return hashEmbedder{}, nil
}

func testOptions(provider api.EmbedderProvider, extra ...func(*Options)) []func(*Options) {
	return append([]func(*Options){
		WithEmbedderProvider(provider),
		WithLogger(log.Nop),
		WithMetricOptions(MetricOptions{Depth: embedding.DepthScoreOptions{Directions: 100}}),
	}, extra...)
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestScoreFieldName(t *testing.T) {
	want := map[string]string{
		"bleu":      "bleu",
		"chrf":      "score",
		"meteor":    "meteor",
		"bertscore": "f1",
		"sacrebleu": "score",
		"bary":      "baryscore_W",
		"depth":     "depth_score",
	}
	for name, field := range want {
		if got := ScoreFieldName[name]; got != field {
			t.Errorf("ScoreFieldName[%q] = %q, want %q", name, got, field)
		}
	}
	if _, ok := ScoreFieldName["infolm"]; ok {
		t.Error("ScoreFieldName has an infolm entry; its field depends on the configured measure")
	}
}

func TestHostedMetric_PerPair(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		workers int
		want    []float64
	}{
		{name: "sacrebleu", workers: 1, want: []float64{21.444097, 12.703319}},
		{name: "sacrebleu", workers: 4, want: []float64{21.444097, 12.703319}},
		{name: "chrf", workers: 2, want: []float64{35.214677, 49.692958}},
		{name: "bleu", workers: 2, want: []float64{0, 0}},
		{name: "exact_match", workers: 2, want: []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewHostedMetric(tt.name, WithWorkers(tt.workers), WithLogger(log.Nop))
			if err != nil {
				t.Fatalf("NewHostedMetric() unexpected error = %v", err)
			}
			if m.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", m.Name(), tt.name)
			}

			got, err := m.Compute(ctx, demoRefs, demoPreds)
			if err != nil {
				t.Fatalf("Compute() unexpected error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Compute() returned %d scores, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > epsilon {
					t.Errorf("Compute()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestHostedMetric_PreservesOrder(t *testing.T) {
	refs := make([]string, 50)
	preds := make([]string, 50)
	for i := range refs {
		refs[i] = "the cat sat on the mat"
		preds[i] = "the dog sat"
		if i%2 == 0 {
			preds[i] = refs[i]
		}
	}

	m, err := NewHostedMetric("exact_match", WithWorkers(8), WithLogger(log.Nop))
	if err != nil {
		t.Fatalf("NewHostedMetric() unexpected error = %v", err)
	}
	got, err := m.Compute(context.Background(), refs, preds)
	if err != nil {
		t.Fatalf("Compute() unexpected error = %v", err)
	}
	for i, v := range got {
		want := 0.0
		if i%2 == 0 {
			want = 1
		}
		if v != want {
			t.Errorf("Compute()[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestHostedMetric_METEOR(t *testing.T) {
	m, err := NewHostedMetric("meteor", WithLogger(log.Nop))
	if err != nil {
		t.Fatalf("NewHostedMetric() unexpected error = %v", err)
	}
	got, err := m.Compute(context.Background(), demoRefs, demoPreds)
	if err != nil {
		t.Fatalf("Compute() unexpected error = %v", err)
	}
	if want := (1 - 0.5*math.Pow(2.0/3, 3)) * (0.375 / 0.725); math.Abs(got[0]-want) > epsilon {
		t.Errorf("Compute()[0] = %v, want %v", got[0], want)
	}
}

func TestHostedMetric_BERTScoreModel(t *testing.T) {
	tests := []struct {
		name      string
		opts      embedding.BERTScoreOptions
		wantModel string
	}{
		{name: "defaults to distilbert", wantModel: "distilbert-base-uncased"},
		{name: "lang picks its model", opts: embedding.BERTScoreOptions{Lang: "en"}, wantModel: "roberta-large"},
		{name: "explicit model", opts: embedding.BERTScoreOptions{ModelType: "bert-base-uncased"}, wantModel: "bert-base-uncased"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &recordingProvider{}
			m, err := NewHostedMetric("bertscore", testOptions(provider,
				WithMetricOptions(MetricOptions{BERTScore: tt.opts}))...)
			if err != nil {
				t.Fatalf("NewHostedMetric() unexpected error = %v", err)
			}

			got, err := m.Compute(context.Background(), demoRefs, demoPreds)
			if err != nil {
				t.Fatalf("Compute() unexpected error = %v", err)
			}
			if len(got) != 2 {
				t.Errorf("Compute() returned %d scores, want 2", len(got))
			}
			if !equalStrings(provider.models, []string{tt.wantModel}) {
				t.Errorf("requested models = %v, want [%s]", provider.models, tt.wantModel)
			}
		})
	}
}

func TestHostedMetric_Errors(t *testing.T) {
	if _, err := NewHostedMetric("rouge"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("NewHostedMetric(rouge) error = %v, want %v", err, ErrUnknownMetric)
	}
	if _, err := NewHostedMetric("bertscore"); !errors.Is(err, ErrNoEmbedder) {
		t.Errorf("NewHostedMetric(bertscore) error = %v, want %v", err, ErrNoEmbedder)
	}

	m, err := NewHostedMetric("bleu", WithLogger(log.Nop))
	if err != nil {
		t.Fatalf("NewHostedMetric() unexpected error = %v", err)
	}
	if _, err := m.Compute(context.Background(), demoRefs, demoPreds[:1]); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Compute() error = %v, want %v", err, ErrLengthMismatch)
	}

	m, err = NewHostedMetric("exact_match", WithLogger(log.Nop),
		WithMetricOptions(MetricOptions{ExactMatch: heuristic.ExactMatchOptions{RegexesToIgnore: []string{"("}}}))
	if err != nil {
		t.Fatalf("NewHostedMetric() unexpected error = %v", err)
	}
	if _, err := m.Compute(context.Background(), demoRefs, demoPreds); err == nil || !strings.Contains(err.Error(), "example 0") {
		t.Errorf("Compute() error = %v, want it to name example 0", err)
	}
}

func TestSimilarityMeasureMetric(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		opts      MetricOptions
		wantField string
	}{
		{name: "bary", wantField: "baryscore_W"},
		{name: "depth", opts: MetricOptions{Depth: embedding.DepthScoreOptions{Directions: 100}}, wantField: "depth_score"},
		{name: "infolm", wantField: "fisher_rao"},
		{name: "infolm", opts: MetricOptions{InfoLM: embedding.InfoLMOptions{Measure: "l1"}}, wantField: "l1"},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.wantField, func(t *testing.T) {
			provider := &recordingProvider{}
			m, err := NewSimilarityMeasureMetric(tt.name,
				WithEmbedderProvider(provider), WithLogger(log.Nop), WithMetricOptions(tt.opts))
			if err != nil {
				t.Fatalf("NewSimilarityMeasureMetric() unexpected error = %v", err)
			}
			if m.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", m.Field(), tt.wantField)
			}
			if !equalStrings(provider.models, []string{embedding.DefaultModel}) {
				t.Errorf("requested models = %v, want [%s]", provider.models, embedding.DefaultModel)
			}

			got, err := m.Compute(ctx, demoRefs, demoPreds)
			if err != nil {
				t.Fatalf("Compute() unexpected error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("Compute() returned %d scores, want 2", len(got))
			}
			for i, v := range got {
				if math.IsNaN(v) {
					t.Errorf("Compute()[%d] is NaN", i)
				}
			}
		})
	}
}

func TestSimilarityMeasureMetric_Errors(t *testing.T) {
	_, err := NewSimilarityMeasureMetric("bleu")
	if !errors.Is(err, ErrUnknownMetric) {
		t.Fatalf("NewSimilarityMeasureMetric(bleu) error = %v, want %v", err, ErrUnknownMetric)
	}
	if want := "unknown metric bleu, expected one of bary, depth, infolm"; err.Error() != want {
		t.Errorf("error message = %q, want %q", err.Error(), want)
	}

	if _, err := NewSimilarityMeasureMetric("bary"); !errors.Is(err, ErrNoEmbedder) {
		t.Errorf("NewSimilarityMeasureMetric(bary) error = %v, want %v", err, ErrNoEmbedder)
	}

	invalid := []struct {
		name string
		opts MetricOptions
	}{
		{name: "infolm", opts: MetricOptions{InfoLM: embedding.InfoLMOptions{Measure: "alpha"}}},
		{name: "infolm", opts: MetricOptions{InfoLM: embedding.InfoLMOptions{Window: -1}}},
		{name: "depth", opts: MetricOptions{Depth: embedding.DepthScoreOptions{NAlpha: -1}}},
		{name: "depth", opts: MetricOptions{Depth: embedding.DepthScoreOptions{Directions: -5}}},
	}
	for _, tt := range invalid {
		if _, err := NewSimilarityMeasureMetric(tt.name, testOptions(&recordingProvider{}, WithMetricOptions(tt.opts))...); err == nil {
			t.Errorf("NewSimilarityMeasureMetric(%s, %+v) expected error", tt.name, tt.opts)
		}
	}

	m, err := NewSimilarityMeasureMetric("bary", testOptions(&recordingProvider{})...)
	if err != nil {
		t.Fatalf("NewSimilarityMeasureMetric() unexpected error = %v", err)
	}
	if _, err := m.Compute(context.Background(), demoRefs, nil); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Compute() error = %v, want %v", err, ErrLengthMismatch)
	}
}

func TestSimilarityMeasureMetric_ModelName(t *testing.T) {
	provider := &recordingProvider{}
	_, err := NewSimilarityMeasureMetric("depth", WithEmbedderProvider(provider),
		WithMetricOptions(MetricOptions{ModelName: "bert-base-uncased"}))
	if err != nil {
		t.Fatalf("NewSimilarityMeasureMetric() unexpected error = %v", err)
	}
	if !equalStrings(provider.models, []string{"bert-base-uncased"}) {
		t.Errorf("requested models = %v, want [bert-base-uncased]", provider.models)
	}
}

// preparedBatchMeasure reports an evaluated batch that differs from the last prepared one.
type preparedBatchMeasure struct {
	mu         sync.Mutex
	prepared   string
	mismatches int
}

func (m *preparedBatchMeasure) PrepareIDFs(_ context.Context, references, _ []string) error {
	m.mu.Lock()
	m.prepared = references[0]
	m.mu.Unlock()
	runtime.Gosched()
	return nil
}

func (m *preparedBatchMeasure) EvaluateBatch(_ context.Context, references, _ []string) (map[string][]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prepared != references[0] {
		m.mismatches++
	}
	return map[string][]float64{"depth_score": make([]float64, len(references))}, nil
}

func TestSimilarityMeasureMetric_ConcurrentCompute(t *testing.T) {
	measure := &preparedBatchMeasure{}
	m := &SimilarityMeasureMetric{name: "depth", measure: measure, logger: log.Nop}

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch := []string{fmt.Sprintf("reference %d", i)}
			if _, err := m.Compute(context.Background(), batch, batch); err != nil {
				t.Errorf("Compute() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	if measure.mismatches != 0 {
		t.Errorf("%d batches were evaluated with another batch's idf statistics", measure.mismatches)
	}
}

func TestUnknownMetricError(t *testing.T) {
	err := error(&UnknownMetricError{Name: "x", Expected: []string{"a", "b"}})
	if !errors.Is(err, ErrUnknownMetric) {
		t.Error("errors.Is(UnknownMetricError, ErrUnknownMetric) = false")
	}
	if want := "unknown metric x, expected one of a, b"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
