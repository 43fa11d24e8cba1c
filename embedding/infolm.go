package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/datar-psa/nlgeval/api"
)

// InfoLM measures
const (
	MeasureKL        = "kl"
	MeasureAlpha     = "alpha"
	MeasureRenyi     = "renyi"
	MeasureBeta      = "beta"
	MeasureAB        = "ab"
	MeasureL1        = "l1"
	MeasureL2        = "l2"
	MeasureLInf      = "linf"
	MeasureFisherRao = "fisher_rao"
)

// InfoLMOptions configures InfoLM
type InfoLMOptions struct {
	// Measure compares the aggregated distributions; defaults to fisher_rao
	Measure string
	// Alpha is required by the alpha, renyi and ab measures
	Alpha *float64
	// Beta is required by the beta and ab measures
	Beta *float64
	// Temperature scales similarities before the softmax; 0 means 0.25
	Temperature float64
	// Window is the number of tokens on each side of the masked token; 0 means 2
	Window int
	// Mask replaces the predicted token in its context; defaults to DefaultMask
	Mask string
	// DisableIDF aggregates token distributions uniformly
	DisableIDF bool
	// Tokenizer overrides the default lowercasing word tokenizer
	Tokenizer api.Tokenizer
}

// InfoLM compares, for a reference and a prediction, the distributions over the batch
// vocabulary predicted for their masked tokens.
type InfoLM struct {
	idfState
	opts InfoLMOptions
}

var (
	_ api.SimilarityMeasure = (*InfoLM)(nil)
	_ api.MeasureSelector   = (*InfoLM)(nil)
)

// NewInfoLM creates an InfoLM measure, validating the measure and its parameters.
func NewInfoLM(embedder api.Embedder, opts InfoLMOptions) (*InfoLM, error) {
	if opts.Measure == "" {
		opts.Measure = MeasureFisherRao
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.25
	}
	if opts.Window == 0 {
		opts.Window = 2
	}
	if opts.Mask == "" {
		opts.Mask = DefaultMask
	}

	if opts.Temperature < 0 {
		return nil, fmt.Errorf("temperature must be positive, got %v", opts.Temperature)
	}
	if opts.Window < 0 {
		return nil, fmt.Errorf("window must not be negative, got %d", opts.Window)
	}

	switch opts.Measure {
	case MeasureAlpha:
		if opts.Alpha == nil {
			return nil, fmt.Errorf("measure %s requires alpha", opts.Measure)
		}
		if a := *opts.Alpha; a == 0 || a == 1 {
			return nil, fmt.Errorf("measure %s is undefined for alpha %v", opts.Measure, a)
		}
	case MeasureRenyi:
		if opts.Alpha == nil {
			return nil, fmt.Errorf("measure %s requires alpha", opts.Measure)
		}
		if a := *opts.Alpha; a == 1 {
			return nil, fmt.Errorf("measure %s is undefined for alpha %v", opts.Measure, a)
		}
	case MeasureBeta:
		if opts.Beta == nil {
			return nil, fmt.Errorf("measure %s requires beta", opts.Measure)
		}
		if b := *opts.Beta; b == 0 || b == -1 {
			return nil, fmt.Errorf("measure %s is undefined for beta %v", opts.Measure, b)
		}
	case MeasureAB:
		if opts.Alpha == nil || opts.Beta == nil {
			return nil, fmt.Errorf("measure %s requires alpha and beta", opts.Measure)
		}
		if a, b := *opts.Alpha, *opts.Beta; a == 0 || b == 0 || a+b == 0 {
			return nil, fmt.Errorf("measure %s is undefined for alpha %v and beta %v", opts.Measure, a, b)
		}
	case MeasureKL, MeasureL1, MeasureL2, MeasureLInf, MeasureFisherRao:
	default:
		return nil, fmt.Errorf("unknown measure %q", opts.Measure)
	}

	return &InfoLM{
		idfState: idfState{
			useIDF: !opts.DisableIDF,
			te:     NewTokenEmbedder(embedder, TokenEmbedderOptions{Tokenizer: opts.Tokenizer}),
		},
		opts: opts,
	}, nil
}

// MeasureToUse returns the name of the configured measure, which is also the result field.
func (m *InfoLM) MeasureToUse() string {
	return m.opts.Measure
}

// EvaluateBatch returns one value per pair under MeasureToUse().
func (m *InfoLM) EvaluateBatch(ctx context.Context, references, predictions []string) (map[string][]float64, error) {
	if len(references) != len(predictions) {
		return nil, api.ErrLengthMismatch
	}
	refTokens, err := m.te.Tokenize(ctx, references)
	if err != nil {
		return nil, err
	}
	hypTokens, err := m.te.Tokenize(ctx, predictions)
	if err != nil {
		return nil, err
	}
	for i := range refTokens {
		if len(refTokens[i]) == 0 {
			return nil, fmt.Errorf("reference %d has no tokens", i)
		}
		if len(hypTokens[i]) == 0 {
			return nil, fmt.Errorf("prediction %d has no tokens", i)
		}
	}
	idfRef, idfHyp, err := m.idfs(ctx, references, predictions)
	if err != nil {
		return nil, err
	}

	vocab := vocabulary(refTokens, hypTokens)
	words, err := m.te.EmbedWords(ctx, vocab)
	if err != nil {
		return nil, err
	}

	tokenized := append(append([][]string(nil), refTokens...), hypTokens...)
	masked, err := m.te.EmbedMasked(ctx, tokenized, m.opts.Window, m.opts.Mask)
	if err != nil {
		return nil, err
	}
	refs, hyps := masked[:len(references)], masked[len(references):]

	scores := make([]float64, len(refs))
	for i := range refs {
		p := m.distribution(refs[i], words, idfRef)
		q := m.distribution(hyps[i], words, idfHyp)
		scores[i] = m.measure(p, q)
		if math.IsNaN(scores[i]) || math.IsInf(scores[i], 0) {
			return nil, fmt.Errorf("measure %s is not finite for pair %d: %v", m.opts.Measure, i, scores[i])
		}
	}
	return map[string][]float64{m.opts.Measure: scores}, nil
}

// distribution aggregates the per-token distributions of a text with idf weights.
func (m *InfoLM) distribution(text TokenEmbeddings, words [][]float64, idf *IDF) []float64 {
	weights := normalizeWeights(idf.Weights(text.Tokens))
	out := make([]float64, len(words))
	logits := make([]float64, len(words))
	for t, v := range text.Vectors {
		for w, word := range words {
			logits[w] = cosineSimilarity(v, word) / m.opts.Temperature
		}
		lse := floats.LogSumExp(logits)
		for w := range logits {
			out[w] += weights[t] * math.Exp(logits[w]-lse)
		}
	}
	return out
}

// measure compares the reference distribution p with the prediction distribution q.
func (m *InfoLM) measure(p, q []float64) float64 {
	switch m.opts.Measure {
	case MeasureKL:
		var kl float64
		for i := range p {
			if p[i] > 0 {
				kl += p[i] * math.Log(p[i]/q[i])
			}
		}
		return kl
	case MeasureAlpha:
		a := *m.opts.Alpha
		return (powSum(p, q, a, 1-a) - 1) / (a * (a - 1))
	case MeasureRenyi:
		a := *m.opts.Alpha
		return math.Log(powSum(p, q, a, 1-a)) / (a - 1)
	case MeasureBeta:
		b := *m.opts.Beta
		first := powSum(p, q, b+1, 0) / (b * (b + 1))
		second := powSum(q, p, b+1, 0) / (b + 1)
		third := powSum(p, q, 1, b) / b
		return first + second - third
	case MeasureAB:
		a, b := *m.opts.Alpha, *m.opts.Beta
		first := math.Log(powSum(p, q, a+b, 0)) / (b * (a + b))
		second := math.Log(powSum(q, p, a+b, 0)) / (a * (a + b))
		third := math.Log(powSum(p, q, a, b)) / (a * b)
		return first + second - third
	case MeasureL1:
		return floats.Distance(p, q, 1)
	case MeasureL2:
		return floats.Distance(p, q, 2)
	case MeasureLInf:
		return floats.Distance(p, q, math.Inf(1))
	default:
		var bc float64
		for i := range p {
			bc += math.Sqrt(p[i] * q[i])
		}
		return 2 * math.Acos(min(1, max(0, bc)))
	}
}

// powSum returns sum p^a * q^b.
func powSum(p, q []float64, a, b float64) float64 {
	var s float64
	for i := range p {
		s += math.Pow(p[i], a) * math.Pow(q[i], b)
	}
	return s
}

// vocabulary returns the sorted distinct tokens of the batch.
func vocabulary(groups ...[][]string) []string {
	seen := make(map[string]struct{})
	var vocab []string
	for _, docs := range groups {
		for _, tokens := range docs {
			for _, tok := range tokens {
				if _, ok := seen[tok]; ok {
					continue
				}
				seen[tok] = struct{}{}
				vocab = append(vocab, tok)
			}
		}
	}
	sort.Strings(vocab)
	return vocab
}
