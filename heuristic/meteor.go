package heuristic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kljensen/snowball/english"

	"github.com/datar-psa/nlgeval/api"
	"github.com/datar-psa/nlgeval/tokenize"
)

// METEOROptions configures the METEOR scorer
type METEOROptions struct {
	// Alpha balances precision and recall in the harmonic mean; 0 means 0.9
	Alpha float64
	// Beta is the fragmentation penalty exponent; 0 means 3
	Beta float64
	// Gamma is the relative weight of the fragmentation penalty; 0 means 0.5
	Gamma float64
	// Tokenizer overrides the default lowercasing word tokenizer
	Tokenizer api.Tokenizer
	// DisableStemming skips the stem matching stage
	DisableStemming bool
}

// METEOR returns a scorer computing single-reference METEOR with exact and stem alignment.
// The result is stored under "meteor" in [0,1].
func METEOR(opts METEOROptions) api.Scorer {
	if opts.Alpha == 0 {
		opts.Alpha = 0.9
	}
	if opts.Beta == 0 {
		opts.Beta = 3
	}
	if opts.Gamma == 0 {
		opts.Gamma = 0.5
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = tokenize.NewWords(tokenize.WordsOptions{Lowercase: true})
	}
	return &meteorScorer{opts: opts}
}

type meteorScorer struct {
	opts METEOROptions
}

// enumWord is a token with its original position.
type enumWord struct {
	pos  int
	word string
}

// alignment pairs a hypothesis position with a reference position.
type alignment struct {
	hyp, ref int
}

func (s *meteorScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "METEOR",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	hypTokens, err := s.opts.Tokenizer.Tokenize(ctx, in.Output)
	if err != nil {
		result.Error = fmt.Errorf("failed to tokenize output: %w", err)
		return result
	}
	refTokens, err := s.opts.Tokenizer.Tokenize(ctx, in.Expected)
	if err != nil {
		result.Error = fmt.Errorf("failed to tokenize expected: %w", err)
		return result
	}

	matches := s.align(hypTokens, refTokens)
	score, precision, recall, chunks := s.compute(matches, len(hypTokens), len(refTokens))

	result.Score = score
	result.Metadata["meteor"] = score
	result.Metadata["precision"] = precision
	result.Metadata["recall"] = recall
	result.Metadata["chunks"] = chunks
	result.Metadata["matches"] = len(matches)

	return result
}

// align matches exact words first and then stems of the words left over,
// and returns the alignments sorted by hypothesis position.
func (s *meteorScorer) align(hypTokens, refTokens []string) []alignment {
	hyp := enumerate(hypTokens)
	ref := enumerate(refTokens)

	matches, hyp, ref := matchEnums(hyp, ref)
	if !s.opts.DisableStemming {
		var stemMatches []alignment
		stemMatches, _, _ = matchEnums(stemAll(hyp), stemAll(ref))
		matches = append(matches, stemMatches...)
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].hyp < matches[j].hyp })
	return matches
}

func (s *meteorScorer) compute(matches []alignment, hypLen, refLen int) (score, precision, recall float64, chunks int) {
	if len(matches) == 0 || hypLen == 0 || refLen == 0 {
		return 0, 0, 0, 0
	}
	precision = float64(len(matches)) / float64(hypLen)
	recall = float64(len(matches)) / float64(refLen)
	fmean := precision * recall / (s.opts.Alpha*precision + (1-s.opts.Alpha)*recall)
	chunks = countChunks(matches)
	fragFrac := float64(chunks) / float64(len(matches))
	penalty := s.opts.Gamma * math.Pow(fragFrac, s.opts.Beta)
	return (1 - penalty) * fmean, precision, recall, chunks
}

func enumerate(tokens []string) []enumWord {
	out := make([]enumWord, len(tokens))
	for i, t := range tokens {
		out[i] = enumWord{pos: i, word: t}
	}
	return out
}

// matchEnums pairs equal words scanning both lists from the end and removes matched entries.
func matchEnums(hyp, ref []enumWord) ([]alignment, []enumWord, []enumWord) {
	hyp = append([]enumWord(nil), hyp...)
	ref = append([]enumWord(nil), ref...)
	var matches []alignment
	for i := len(hyp) - 1; i >= 0; i-- {
		for j := len(ref) - 1; j >= 0; j-- {
			if hyp[i].word == ref[j].word {
				matches = append(matches, alignment{hyp: hyp[i].pos, ref: ref[j].pos})
				hyp = append(hyp[:i], hyp[i+1:]...)
				ref = append(ref[:j], ref[j+1:]...)
				break
			}
		}
	}
	return matches, hyp, ref
}

func stemAll(words []enumWord) []enumWord {
	out := make([]enumWord, len(words))
	for i, w := range words {
		out[i] = enumWord{pos: w.pos, word: english.Stem(w.word, true)}
	}
	return out
}

// countChunks counts runs of alignments that are contiguous on both sides.
func countChunks(matches []alignment) int {
	chunks := 1
	for i := 0; i < len(matches)-1; i++ {
		if matches[i+1].hyp == matches[i].hyp+1 && matches[i+1].ref == matches[i].ref+1 {
			continue
		}
		chunks++
	}
	return chunks
}
