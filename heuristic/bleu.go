package heuristic

import (
	"context"
	"math"
	"strings"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/tokenize"
)

// BLEUOptions configures the BLEU scorer
type BLEUOptions struct {
	// MaxOrder is the highest n-gram order; 0 means 4
	MaxOrder int
	// Smooth applies add-one smoothing to every precision (Lin & Och 2004)
	Smooth bool
	// Lowercase folds both sides to lower case before tokenization
	Lowercase bool
}

// BLEU returns a scorer computing sentence BLEU on 13a tokens.
// The score and the result fields ("bleu", "precisions", "brevity_penalty",
// "length_ratio", "translation_length", "reference_length") are in [0,1] scale.
func BLEU(opts BLEUOptions) api.Scorer {
	if opts.MaxOrder <= 0 {
		opts.MaxOrder = 4
	}
	return &bleuScorer{opts: opts}
}

type bleuScorer struct {
	opts BLEUOptions
}

func (s *bleuScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "BLEU",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	reference, prediction := in.Expected, in.Output
	if s.opts.Lowercase {
		reference = strings.ToLower(reference)
		prediction = strings.ToLower(prediction)
	}
	refTokens := tokenize.Tokenize13a(reference)
	hypTokens := tokenize.Tokenize13a(prediction)

	maxOrder := s.opts.MaxOrder
	matches := make([]int, maxOrder)
	possible := make([]int, maxOrder)
	for n := 1; n <= maxOrder; n++ {
		matches[n-1] = clippedMatches(ngramCounts(hypTokens, n), ngramCounts(refTokens, n))
		if p := len(hypTokens) - n + 1; p > 0 {
			possible[n-1] = p
		}
	}

	precisions := make([]float64, maxOrder)
	for i := range precisions {
		switch {
		case s.opts.Smooth:
			precisions[i] = (float64(matches[i]) + 1) / (float64(possible[i]) + 1)
		case possible[i] > 0:
			precisions[i] = float64(matches[i]) / float64(possible[i])
		}
	}

	geoMean := 0.0
	if minFloat(precisions) > 0 {
		logSum := 0.0
		for _, p := range precisions {
			logSum += math.Log(p) / float64(maxOrder)
		}
		geoMean = math.Exp(logSum)
	}

	translationLength := len(hypTokens)
	referenceLength := len(refTokens)
	ratio := math.Inf(1)
	if referenceLength > 0 {
		ratio = float64(translationLength) / float64(referenceLength)
	}
	bp := 1.0
	switch {
	case translationLength == 0:
		bp = 0
	case ratio <= 1.0:
		bp = math.Exp(1 - 1/ratio)
	}

	bleu := geoMean * bp
	result.Score = bleu
	result.Metadata["bleu"] = bleu
	result.Metadata["precisions"] = precisions
	result.Metadata["brevity_penalty"] = bp
	result.Metadata["length_ratio"] = ratio
	result.Metadata["translation_length"] = translationLength
	result.Metadata["reference_length"] = referenceLength

	return result
}

func minFloat(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m = min(m, v)
	}
	return m
}
