package heuristic

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/tokenize"
)

// Smoothing methods understood by SacreBLEU
const (
	SmoothNone  = "none"
	SmoothFloor = "floor"
	SmoothAddK  = "add-k"
	SmoothExp   = "exp"
)

var defaultSmoothValues = map[string]float64{
	SmoothFloor: 0.1,
	SmoothAddK:  1,
}

// SacreBLEUOptions configures the SacreBLEU scorer
type SacreBLEUOptions struct {
	// SmoothMethod is one of none, floor, add-k, exp; empty means exp
	SmoothMethod string
	// SmoothValue overrides the floor (0.1) or add-k (1) constant
	SmoothValue *float64
	// Lowercase folds both sides to lower case
	Lowercase bool
	// Tokenize selects the tokenizer: "13a" (default) or "none" (whitespace split)
	Tokenize string
	// UseEffectiveOrder stops at the highest order the prediction has n-grams for
	UseEffectiveOrder bool
}

const sacreBLEUMaxOrder = 4

// SacreBLEU returns a scorer with sacrebleu's BLEU semantics.
// "score" is on a 0-100 scale; api.Score.Score carries the same value divided by 100.
func SacreBLEU(opts SacreBLEUOptions) api.Scorer {
	if opts.SmoothMethod == "" {
		opts.SmoothMethod = SmoothExp
	}
	if opts.Tokenize == "" {
		opts.Tokenize = "13a"
	}
	return &sacreBLEUScorer{opts: opts}
}

type sacreBLEUScorer struct {
	opts SacreBLEUOptions
}

func (s *sacreBLEUScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "SacreBLEU",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	smoothValue, err := s.smoothValue()
	if err != nil {
		result.Error = err
		result.Score = 0
		return result
	}

	reference, prediction := in.Expected, in.Output
	if s.opts.Lowercase {
		reference = strings.ToLower(reference)
		prediction = strings.ToLower(prediction)
	}
	var refTokens, hypTokens []string
	switch s.opts.Tokenize {
	case "13a":
		refTokens = tokenize.Tokenize13a(reference)
		hypTokens = tokenize.Tokenize13a(prediction)
	case "none":
		refTokens = strings.Fields(reference)
		hypTokens = strings.Fields(prediction)
	default:
		result.Error = fmt.Errorf("unknown tokenizer %q, expected one of 13a, none", s.opts.Tokenize)
		result.Score = 0
		return result
	}

	correct := make([]float64, sacreBLEUMaxOrder)
	totals := make([]float64, sacreBLEUMaxOrder)
	for n := 1; n <= sacreBLEUMaxOrder; n++ {
		correct[n-1] = float64(clippedMatches(ngramCounts(hypTokens, n), ngramCounts(refTokens, n)))
		totals[n-1] = float64(max(0, len(hypTokens)-n+1))
	}
	counts := append([]float64(nil), correct...)
	totalsOut := append([]float64(nil), totals...)

	score, precisions, bp := computeSacreBLEU(correct, totals, len(hypTokens), len(refTokens), s.opts.SmoothMethod, smoothValue, s.opts.UseEffectiveOrder)

	result.Score = score / 100
	result.Metadata["score"] = score
	result.Metadata["counts"] = counts
	result.Metadata["totals"] = totalsOut
	result.Metadata["precisions"] = precisions
	result.Metadata["bp"] = bp
	result.Metadata["sys_len"] = len(hypTokens)
	result.Metadata["ref_len"] = len(refTokens)

	return result
}

func (s *sacreBLEUScorer) smoothValue() (float64, error) {
	switch s.opts.SmoothMethod {
	case SmoothNone, SmoothExp:
		return 0, nil
	case SmoothFloor, SmoothAddK:
		if s.opts.SmoothValue != nil {
			return *s.opts.SmoothValue, nil
		}
		return defaultSmoothValues[s.opts.SmoothMethod], nil
	default:
		return 0, fmt.Errorf("unknown smooth method %q, expected one of none, floor, add-k, exp", s.opts.SmoothMethod)
	}
}

// computeSacreBLEU turns match statistics into a 0-100 BLEU score.
// correct and totals are modified in place by add-k smoothing.
func computeSacreBLEU(correct, totals []float64, sysLen, refLen int, smoothMethod string, smoothValue float64, useEffectiveOrder bool) (float64, []float64, float64) {
	maxOrder := len(correct)
	precisions := make([]float64, maxOrder)

	bp := 1.0
	if sysLen < refLen {
		if sysLen > 0 {
			bp = math.Exp(1 - float64(refLen)/float64(sysLen))
		} else {
			bp = 0
		}
	}

	anyCorrect := false
	for _, c := range correct {
		if c > 0 {
			anyCorrect = true
			break
		}
	}
	if !anyCorrect {
		return 0, precisions, bp
	}

	smoothMteval := 1.0
	effOrder := maxOrder
	for n := 1; n <= maxOrder; n++ {
		if smoothMethod == SmoothAddK && n > 1 {
			correct[n-1] += smoothValue
			totals[n-1] += smoothValue
		}
		if totals[n-1] == 0 {
			break
		}
		if useEffectiveOrder {
			effOrder = n
		}
		if correct[n-1] == 0 {
			switch smoothMethod {
			case SmoothExp:
				smoothMteval *= 2
				precisions[n-1] = 100 / (smoothMteval * totals[n-1])
			case SmoothFloor:
				precisions[n-1] = 100 * smoothValue / totals[n-1]
			}
		} else {
			precisions[n-1] = 100 * correct[n-1] / totals[n-1]
		}
	}

	logSum := 0.0
	for _, p := range precisions[:effOrder] {
		logSum += safeLog(p)
	}
	return bp * math.Exp(logSum/float64(effOrder)), precisions, bp
}

// safeLog mirrors sacrebleu's my_log: a huge negative number instead of -Inf.
func safeLog(x float64) float64 {
	if x == 0 {
		return -9999999999
	}
	return math.Log(x)
}
