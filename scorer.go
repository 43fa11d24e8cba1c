package nlgeval

import (
	"context"

	"github.com/datar-psa/nlgeval/api"
)

type Score = api.Score
type ScoreInputs = api.ScoreInputs
type Scorer = api.Scorer

// Metric scores parallel lists of references and predictions with a single number per example
type Metric interface {
	// Name returns the catalogue name of the metric (e.g. "bleu")
	Name() string
	// Compute returns one score per example, in input order
	Compute(ctx context.Context, references, predictions []string) ([]float64, error)
}

// ScoreFieldName maps a metric name to the result field holding its per-example score.
// InfoLM has no entry: its field is the measure it was configured with.
var ScoreFieldName = map[string]string{
	"bleu":        "bleu",
	"chrf":        "score",
	"meteor":      "meteor",
	"bertscore":   "f1",
	"sacrebleu":   "score",
	"bary":        "baryscore_W",
	"depth":       "depth_score",
	"exact_match": "exact_match",
	"cosine":      "cosine_similarity",
}

// checkLengths enforces that references and predictions are parallel.
func checkLengths(references, predictions []string) error {
	if len(references) != len(predictions) {
		return ErrLengthMismatch
	}
	return nil
}
