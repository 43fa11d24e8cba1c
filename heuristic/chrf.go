package heuristic

import (
	"context"
	"strings"

	"github.com/datar-psa/nlgeval/api"
)

const chrfPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// ChrFOptions configures the ChrF scorer
type ChrFOptions struct {
	// CharOrder is the character n-gram order; 0 means 6
	CharOrder int
	// WordOrder is the word n-gram order; 0 gives chrF, 2 gives chrF++
	WordOrder int
	// Beta weights recall over precision; 0 means 2
	Beta float64
	// Lowercase folds both sides to lower case
	Lowercase bool
	// Whitespace keeps whitespace inside character n-grams
	Whitespace bool
	// EpsSmoothing averages per-order F-scores instead of averaging precision and recall first
	EpsSmoothing bool
}

// ChrF returns a scorer with sacrebleu's CHRF semantics. "score" is on a 0-100 scale.
func ChrF(opts ChrFOptions) api.Scorer {
	if opts.CharOrder <= 0 {
		opts.CharOrder = 6
	}
	if opts.Beta <= 0 {
		opts.Beta = 2
	}
	return &chrfScorer{opts: opts}
}

type chrfScorer struct {
	opts ChrFOptions
}

// ngramStats holds the per-order statistics used by chrF.
type ngramStats struct {
	hyp, ref, match int
}

func (s *chrfScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "ChrF",
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

	stats := make([]ngramStats, 0, s.opts.CharOrder+s.opts.WordOrder)
	hypChars := s.charSequence(prediction)
	refChars := s.charSequence(reference)
	for n := 1; n <= s.opts.CharOrder; n++ {
		hyp := ngramCounts(hypChars, n)
		ref := ngramCounts(refChars, n)
		stats = append(stats, ngramStats{hyp: total(hyp), ref: total(ref), match: clippedMatches(hyp, ref)})
	}
	if s.opts.WordOrder > 0 {
		hypWords := splitPunctuation(prediction)
		refWords := splitPunctuation(reference)
		for n := 1; n <= s.opts.WordOrder; n++ {
			hyp := ngramCounts(hypWords, n)
			ref := ngramCounts(refWords, n)
			stats = append(stats, ngramStats{hyp: total(hyp), ref: total(ref), match: clippedMatches(hyp, ref)})
		}
	}

	score := s.fScore(stats)
	result.Score = score / 100
	result.Metadata["score"] = score
	result.Metadata["char_order"] = s.opts.CharOrder
	result.Metadata["word_order"] = s.opts.WordOrder
	result.Metadata["beta"] = s.opts.Beta

	return result
}

// charSequence returns the characters of text as one-rune strings, without whitespace unless configured.
func (s *chrfScorer) charSequence(text string) []string {
	if !s.opts.Whitespace {
		text = strings.Join(strings.Fields(text), "")
	}
	chars := make([]string, 0, len(text))
	for _, r := range text {
		chars = append(chars, string(r))
	}
	return chars
}

func (s *chrfScorer) fScore(stats []ngramStats) float64 {
	const eps = 1e-16
	factor := s.opts.Beta * s.opts.Beta
	score := 0.0
	avgPrec, avgRec := 0.0, 0.0
	effectiveOrder := 0

	for _, st := range stats {
		prec, rec := eps, eps
		if st.hyp > 0 {
			prec = float64(st.match) / float64(st.hyp)
		}
		if st.ref > 0 {
			rec = float64(st.match) / float64(st.ref)
		}
		if denom := factor*prec + rec; denom > 0 {
			score += (1 + factor) * prec * rec / denom
		} else {
			score += eps
		}
		if st.hyp > 0 && st.ref > 0 {
			avgPrec += prec
			avgRec += rec
			effectiveOrder++
		}
	}

	if s.opts.EpsSmoothing {
		return 100 * score / float64(len(stats))
	}
	if effectiveOrder == 0 {
		return 0
	}
	avgPrec /= float64(effectiveOrder)
	avgRec /= float64(effectiveOrder)
	if avgPrec+avgRec == 0 {
		return 0
	}
	return 100 * (1 + factor) * avgPrec * avgRec / (factor*avgPrec + avgRec)
}

// splitPunctuation splits words on whitespace and detaches one leading or trailing punctuation mark.
func splitPunctuation(text string) []string {
	var tokens []string
	for _, w := range strings.Fields(text) {
		runes := []rune(w)
		switch {
		case len(runes) == 1:
			tokens = append(tokens, w)
		case strings.ContainsRune(chrfPunctuation, runes[len(runes)-1]):
			tokens = append(tokens, string(runes[:len(runes)-1]), string(runes[len(runes)-1]))
		case strings.ContainsRune(chrfPunctuation, runes[0]):
			tokens = append(tokens, string(runes[0]), string(runes[1:]))
		default:
			tokens = append(tokens, w)
		}
	}
	return tokens
}
