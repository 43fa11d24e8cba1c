package nlgeval

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/embedding"
	"github.com/datar-psa/nlgeval/heuristic"
)

// HostedMetrics lists the names NewHostedMetric accepts
var HostedMetrics = []string{"bleu", "chrf", "meteor", "sacrebleu", "bertscore", "exact_match", "cosine"}

// SimilarityMeasures lists the names NewSimilarityMeasureMetric accepts
var SimilarityMeasures = []string{"bary", "depth", "infolm"}

// HostedMetric adapts a scorer from the hosted catalogue. Per-pair scorers are run pair by pair
// on a worker pool; BERTScore is computed in one batched call.
type HostedMetric struct {
	name    string
	field   string
	scorer  api.Scorer
	batch   api.BatchScorer
	workers int
	logger  *zap.Logger
}

var _ Metric = (*HostedMetric)(nil)

// NewHostedMetric loads the named scorer. For BERTScore, the model defaults to
// distilbert-base-uncased when neither a language nor a model is given.
func NewHostedMetric(name string, opts ...func(*Options)) (*HostedMetric, error) {
	options := newOptions(opts)
	m := &HostedMetric{
		name:    name,
		field:   ScoreFieldName[name],
		workers: options.workers,
		logger:  options.logger.With(zap.String("metric", name)),
	}
	mo := options.metricOptions

	switch name {
	case "bleu":
		m.scorer = heuristic.BLEU(mo.BLEU)
	case "chrf":
		m.scorer = heuristic.ChrF(mo.ChrF)
	case "meteor":
		m.scorer = heuristic.METEOR(mo.METEOR)
	case "sacrebleu":
		m.scorer = heuristic.SacreBLEU(mo.SacreBLEU)
	case "exact_match":
		m.scorer = heuristic.ExactMatch(mo.ExactMatch)
	case "cosine":
		e, err := options.embedder(mo.ModelName)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		m.scorer = embedding.EmbeddingSimilarity(e, mo.Cosine)
	case "bertscore":
		if options.provider == nil {
			return nil, fmt.Errorf("load %s: %w", name, ErrNoEmbedder)
		}
		bo := mo.BERTScore
		if bo.Lang == "" && bo.ModelType == "" {
			bo.ModelType = embedding.DefaultModel
		}
		m.batch = embedding.BERTScore(options.provider, bo)
	default:
		return nil, &UnknownMetricError{Name: name, Expected: HostedMetrics}
	}
	return m, nil
}

// Name implements Metric
func (m *HostedMetric) Name() string {
	return m.name
}

// Compute implements Metric
func (m *HostedMetric) Compute(ctx context.Context, references, predictions []string) ([]float64, error) {
	if err := checkLengths(references, predictions); err != nil {
		return nil, err
	}

	if m.batch != nil {
		m.logger.Info("Computing BERTScore...", zap.Int("examples", len(references)))
		fields, err := m.batch.ScoreBatch(ctx, references, predictions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.name, err)
		}
		scores, ok := fields[m.field]
		if !ok {
			return nil, fmt.Errorf("%s: result has no %q field", m.name, m.field)
		}
		return scores, nil
	}

	total := len(references)
	var finished atomic.Int64
	step := max(1, total/10)
	progress := func() {
		n := finished.Add(1)
		if int(n)%step == 0 || int(n) == total {
			m.logger.Info("scoring", zap.Int64("done", n), zap.Int("total", total))
		}
	}

	results, err := scorePairs(ctx, m.scorer, references, predictions, m.workers, progress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}

	scores := make([]float64, len(results))
	for i, r := range results {
		if r.Error != nil {
			return nil, fmt.Errorf("%s: example %d: %w", m.name, i, r.Error)
		}
		v, ok := r.Metadata[m.field].(float64)
		if !ok {
			return nil, fmt.Errorf("%s: example %d: result has no %q field", m.name, i, m.field)
		}
		scores[i] = v
	}
	return scores, nil
}

// SimilarityMeasureMetric adapts BaryScore, DepthScore and InfoLM: it prepares idf statistics
// over the batch and evaluates it in one call. Concurrent Compute calls are serialized
// because the measure keeps the prepared statistics between the two steps.
type SimilarityMeasureMetric struct {
	name    string
	model   string
	measure api.SimilarityMeasure
	logger  *zap.Logger

	mu sync.Mutex
}

var _ Metric = (*SimilarityMeasureMetric)(nil)

// NewSimilarityMeasureMetric builds one of bary, depth or infolm on the encoder named by
// MetricOptions.ModelName.
func NewSimilarityMeasureMetric(name string, opts ...func(*Options)) (*SimilarityMeasureMetric, error) {
	switch name {
	case "bary", "depth", "infolm":
	default:
		return nil, &UnknownMetricError{Name: name, Expected: SimilarityMeasures}
	}

	options := newOptions(opts)
	mo := options.metricOptions
	e, err := options.embedder(mo.ModelName)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	m := &SimilarityMeasureMetric{
		name:   name,
		model:  mo.ModelName,
		logger: options.logger.With(zap.String("metric", name)),
	}
	switch name {
	case "bary":
		m.measure = embedding.NewBaryScore(e, mo.Bary)
	case "depth":
		m.measure, err = embedding.NewDepthScore(e, mo.Depth)
	case "infolm":
		m.measure, err = embedding.NewInfoLM(e, mo.InfoLM)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return m, nil
}

// Name implements Metric
func (m *SimilarityMeasureMetric) Name() string {
	return m.name
}

// Field returns the result field Compute reads
func (m *SimilarityMeasureMetric) Field() string {
	if sel, ok := m.measure.(api.MeasureSelector); ok {
		return sel.MeasureToUse()
	}
	return ScoreFieldName[m.name]
}

// Compute implements Metric
func (m *SimilarityMeasureMetric) Compute(ctx context.Context, references, predictions []string) ([]float64, error) {
	if err := checkLengths(references, predictions); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug("preparing idf statistics", zap.Int("examples", len(references)), zap.String("model", m.model))
	if err := m.measure.PrepareIDFs(ctx, references, predictions); err != nil {
		return nil, fmt.Errorf("%s: prepare idfs: %w", m.name, err)
	}
	fields, err := m.measure.EvaluateBatch(ctx, references, predictions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.name, err)
	}

	field := m.Field()
	scores, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("%s: result has no %q field", m.name, field)
	}
	return scores, nil
}
