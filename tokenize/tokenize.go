// Package tokenize holds the tokenizers used by the metric scorers.
//
// Tokenize13a reproduces the mteval-v13a tokenizer that BLEU, sacreBLEU and chrF
// reports are usually computed with. Words is a general word/punctuation tokenizer
// implementing api.Tokenizer, used by METEOR and the embedding-based scorers.
package tokenize

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/datar-psa/nlgeval/api"
)

var (
	// punctRE isolates ASCII punctuation and symbols, except period, comma and dash.
	punctRE = regexp.MustCompile("([{-~\\[-\x60 -&(-+:-@/])")
	// periodCommaAfterRE splits a period or comma not preceded by a digit.
	periodCommaAfterRE = regexp.MustCompile(`([^0-9])([.,])`)
	// periodCommaBeforeRE splits a period or comma not followed by a digit.
	periodCommaBeforeRE = regexp.MustCompile(`([.,])([^0-9])`)
	// dashRE splits a dash preceded by a digit.
	dashRE = regexp.MustCompile(`([0-9])(-)`)

	// wordRE matches a run of letters/digits with optional apostrophe suffix, or a single symbol.
	wordRE = regexp.MustCompile(`[\p{L}\p{N}_]+(?:['’][\p{L}]+)?|[^\p{L}\p{N}_\s]`)
)

// Tokenize13a applies the mteval-v13a tokenization and returns the tokens.
func Tokenize13a(line string) []string {
	line = strings.ReplaceAll(line, "<skipped>", "")
	line = strings.ReplaceAll(line, "-\n", "")
	line = strings.ReplaceAll(line, "\n", " ")
	if strings.Contains(line, "&") {
		line = strings.ReplaceAll(line, "&quot;", `"`)
		line = strings.ReplaceAll(line, "&amp;", "&")
		line = strings.ReplaceAll(line, "&lt;", "<")
		line = strings.ReplaceAll(line, "&gt;", ">")
	}

	line = " " + line + " "
	line = punctRE.ReplaceAllString(line, " ${1} ")
	line = periodCommaAfterRE.ReplaceAllString(line, "${1} ${2} ")
	line = periodCommaBeforeRE.ReplaceAllString(line, " ${1} ${2}")
	line = dashRE.ReplaceAllString(line, "${1} ${2} ")
	return strings.Fields(line)
}

// WordsOptions configures the Words tokenizer
type WordsOptions struct {
	// Lowercase folds tokens to lower case (uncased models, METEOR's default preprocessing)
	Lowercase bool
}

// Words splits text into word and punctuation tokens after NFC normalization.
type Words struct {
	opts WordsOptions
}

// NewWords creates a Words tokenizer
func NewWords(opts WordsOptions) *Words {
	return &Words{opts: opts}
}

// Split tokenizes text without a context; it never fails.
func (w *Words) Split(text string) []string {
	text = norm.NFC.String(text)
	if w.opts.Lowercase {
		text = strings.ToLower(text)
	}
	return wordRE.FindAllString(text, -1)
}

// Tokenize implements api.Tokenizer
func (w *Words) Tokenize(_ context.Context, text string) ([]string, error) {
	return w.Split(text), nil
}

var _ api.Tokenizer = (*Words)(nil)
