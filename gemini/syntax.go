package gemini

import (
	"context"
	"fmt"
	"strings"

	language "cloud.google.com/go/language/apiv1"
	languagepb "cloud.google.com/go/language/apiv1/languagepb"

	"github.com/datar-psa/nlgeval/api"
)

// SyntaxTokenizerOptions configures the SyntaxTokenizer
type SyntaxTokenizerOptions struct {
	// UseLemma returns lemmas instead of surface forms
	UseLemma bool
	// Lowercase lowercases every token
	Lowercase bool
	// Language is an ISO-639-1 code; empty lets the API detect it
	Language string
}

// SyntaxTokenizer implements api.Tokenizer using Google Cloud Natural Language AnalyzeSyntax
type SyntaxTokenizer struct {
	client *language.Client
	opts   SyntaxTokenizerOptions
}

// NewSyntaxTokenizer creates a tokenizer using a preconfigured *language.Client (auth handled by caller)
func NewSyntaxTokenizer(client *language.Client, opts SyntaxTokenizerOptions) *SyntaxTokenizer {
	return &SyntaxTokenizer{client: client, opts: opts}
}

// Tokenize splits text into the tokens reported by the syntax analysis
func (t *SyntaxTokenizer) Tokenize(ctx context.Context, text string) ([]string, error) {
	if t.client == nil {
		return nil, fmt.Errorf("language client is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	req := &languagepb.AnalyzeSyntaxRequest{
		Document: &languagepb.Document{
			Type: languagepb.Document_PLAIN_TEXT,
			Source: &languagepb.Document_Content{
				Content: text,
			},
			Language: t.opts.Language,
		},
		EncodingType: languagepb.EncodingType_UTF8,
	}

	resp, err := t.client.AnalyzeSyntax(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("analyze syntax failed: %w", err)
	}

	return t.tokens(resp.GetTokens()), nil
}

func (t *SyntaxTokenizer) tokens(tokens []*languagepb.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		s := tok.GetText().GetContent()
		if t.opts.UseLemma && tok.GetLemma() != "" {
			s = tok.GetLemma()
		}
		if t.opts.Lowercase {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}

var _ api.Tokenizer = (*SyntaxTokenizer)(nil)
