package heuristic

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/datar-psa/nlgeval/api"
)

// ExactMatchOptions configures the ExactMatch scorer
type ExactMatchOptions struct {
	// CaseInsensitive determines if the comparison should ignore case
	CaseInsensitive bool
	// TrimWhitespace determines if leading and trailing whitespace should be trimmed
	TrimWhitespace bool
	// IgnorePunctuation removes ASCII punctuation from both sides before comparing
	IgnorePunctuation bool
	// IgnoreNumbers removes digits from both sides before comparing
	IgnoreNumbers bool
	// RegexesToIgnore are removed from both sides, in order, before any other normalization
	RegexesToIgnore []string
}

// ExactMatch returns a scorer that checks if the prediction exactly matches the reference.
// The result is stored under "exact_match" as 1 or 0.
func ExactMatch(opts ExactMatchOptions) api.Scorer {
	s := &exactMatchScorer{opts: opts}
	for _, expr := range opts.RegexesToIgnore {
		re, err := regexp.Compile(expr)
		if err != nil {
			s.compileErr = fmt.Errorf("invalid regex to ignore %q: %w", expr, err)
			break
		}
		s.ignore = append(s.ignore, re)
	}
	return s
}

type exactMatchScorer struct {
	opts       ExactMatchOptions
	ignore     []*regexp.Regexp
	compileErr error
}

func (s *exactMatchScorer) Score(ctx context.Context, in api.ScoreInputs) api.Score {
	result := api.Score{
		Name:     "ExactMatch",
		Metadata: make(map[string]any),
	}

	if in.Expected == "" {
		result.Error = api.ErrNoExpectedValue
		result.Score = 0
		return result
	}

	if s.compileErr != nil {
		result.Error = s.compileErr
		result.Score = 0
		return result
	}

	outputToCompare := s.normalize(in.Output)
	expectedToCompare := s.normalize(in.Expected)

	if outputToCompare == expectedToCompare {
		result.Score = 1.0
	} else {
		result.Score = 0.0
	}

	result.Metadata["exact_match"] = result.Score
	result.Metadata["case_insensitive"] = s.opts.CaseInsensitive
	result.Metadata["trim_whitespace"] = s.opts.TrimWhitespace
	result.Metadata["output_length"] = len(in.Output)
	result.Metadata["expected_length"] = len(in.Expected)

	return result
}

func (s *exactMatchScorer) normalize(text string) string {
	for _, re := range s.ignore {
		text = re.ReplaceAllString(text, "")
	}
	if s.opts.TrimWhitespace {
		text = strings.TrimSpace(text)
	}
	if s.opts.CaseInsensitive {
		text = strings.ToLower(text)
	}
	if s.opts.IgnorePunctuation {
		text = strings.Map(func(r rune) rune {
			if r < unicode.MaxASCII && unicode.IsPunct(r) || strings.ContainsRune("$+<=>^`|~", r) {
				return -1
			}
			return r
		}, text)
	}
	if s.opts.IgnoreNumbers {
		text = strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return -1
			}
			return r
		}, text)
	}
	return text
}
