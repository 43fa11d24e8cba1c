package nlgeval

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/datar-psa/nlgeval/internal/log"
)

// AllMetrics are the metrics built by LoadAllMetrics
var AllMetrics = []string{"bleu", "chrf", "meteor", "bertscore", "sacrebleu", "bary", "depth", "infolm"}

// New builds the named metric with the adapter that serves it
func New(name string, opts ...func(*Options)) (Metric, error) {
	for _, m := range SimilarityMeasures {
		if m == name {
			return NewSimilarityMeasureMetric(name, opts...)
		}
	}
	for _, m := range HostedMetrics {
		if m == name {
			return NewHostedMetric(name, opts...)
		}
	}
	expected := append(append([]string(nil), HostedMetrics...), SimilarityMeasures...)
	return nil, &UnknownMetricError{Name: name, Expected: expected}
}

// LoadMetrics builds the named metrics, keyed by name
func LoadMetrics(names []string, opts ...func(*Options)) (map[string]Metric, error) {
	metrics := make(map[string]Metric, len(names))
	for _, name := range names {
		m, err := New(name, opts...)
		if err != nil {
			return nil, err
		}
		metrics[name] = m
	}
	return metrics, nil
}

// LoadAllMetrics builds bleu, chrf, meteor, bertscore and sacrebleu on the hosted adapter
// and bary, depth and infolm on the similarity-measure adapter.
func LoadAllMetrics(opts ...func(*Options)) (map[string]Metric, error) {
	return LoadMetrics(AllMetrics, opts...)
}

// ScoreAll computes every metric on the same pairs. Failing metrics are left out of the
// result and reported together in the returned error.
func ScoreAll(ctx context.Context, metrics map[string]Metric, references, predictions []string, opts ...func(*Options)) (map[string][]float64, error) {
	if err := checkLengths(references, predictions); err != nil {
		return nil, err
	}
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = log.Default
	}

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs *multierror.Error
	results := make(map[string][]float64, len(metrics))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		scores, err := metrics[name].Compute(ctx, references, predictions)
		if err != nil {
			logger.Warn("metric failed", zap.String("metric", name), zap.Error(err))
			errs = multierror.Append(errs, err)
			continue
		}
		logger.Debug("metric done", zap.String("metric", name), zap.Float64s("scores", scores))
		results[name] = scores
	}
	return results, errs.ErrorOrNil()
}
