package tokenize

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	sentencesdata "github.com/neurosnap/sentences/data"
)

var (
	englishOnce      sync.Once
	englishTokenizer *sentences.DefaultSentenceTokenizer
	englishErr       error

	blankLine = regexp.MustCompile(`\r?\n[ \t]*\r?\n`)
)

// Sentences splits English text into sentences using the Punkt model.
// A blank line always ends a sentence, even without closing punctuation.
// Blank sentences are dropped and the rest are trimmed.
func Sentences(text string) ([]string, error) {
	englishOnce.Do(func() {
		b, err := sentencesdata.Asset("data/english.json")
		if err != nil {
			englishErr = fmt.Errorf("load english punkt data: %w", err)
			return
		}
		training, err := sentences.LoadTraining(b)
		if err != nil {
			englishErr = fmt.Errorf("parse english punkt data: %w", err)
			return
		}
		englishTokenizer = sentences.NewSentenceTokenizer(training)
	})
	if englishErr != nil {
		return nil, englishErr
	}

	var out []string
	for _, paragraph := range blankLine.Split(text, -1) {
		if strings.TrimSpace(paragraph) == "" {
			continue
		}
		for _, s := range englishTokenizer.Tokenize(paragraph) {
			if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out, nil
}
