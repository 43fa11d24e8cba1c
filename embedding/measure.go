package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/datar-psa/nlgeval/api"
)

// idfState holds the reference and hypothesis idf statistics shared by the similarity measures.
type idfState struct {
	mu     sync.RWMutex
	useIDF bool
	te     *TokenEmbedder
	ref    *IDF
	hyp    *IDF
}

// PrepareIDFs computes idf statistics over the references and the predictions separately.
func (s *idfState) PrepareIDFs(ctx context.Context, references, predictions []string) error {
	if len(references) != len(predictions) {
		return api.ErrLengthMismatch
	}
	ref, err := ComputeIDFTexts(ctx, s.te.Tokenizer(), references)
	if err != nil {
		return fmt.Errorf("reference idf: %w", err)
	}
	hyp, err := ComputeIDFTexts(ctx, s.te.Tokenizer(), predictions)
	if err != nil {
		return fmt.Errorf("prediction idf: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref, s.hyp = ref, hyp
	return nil
}

// idfs returns the prepared statistics, computing them over the batch when PrepareIDFs was never called.
// Both are nil when idf weighting is disabled.
func (s *idfState) idfs(ctx context.Context, references, predictions []string) (ref, hyp *IDF, err error) {
	if !s.useIDF {
		return nil, nil, nil
	}
	s.mu.RLock()
	ref, hyp = s.ref, s.hyp
	s.mu.RUnlock()
	if ref != nil && hyp != nil {
		return ref, hyp, nil
	}
	if err := s.PrepareIDFs(ctx, references, predictions); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ref, s.hyp, nil
}

// embedPairs embeds references and predictions in one pass and rejects empty texts.
func embedPairs(ctx context.Context, te *TokenEmbedder, references, predictions []string) (refs, hyps []TokenEmbeddings, err error) {
	if len(references) != len(predictions) {
		return nil, nil, api.ErrLengthMismatch
	}
	all := make([]string, 0, len(references)+len(predictions))
	all = append(all, references...)
	all = append(all, predictions...)
	embedded, err := te.EmbedTokens(ctx, all)
	if err != nil {
		return nil, nil, err
	}
	refs, hyps = embedded[:len(references)], embedded[len(references):]
	for i := range refs {
		if len(refs[i].Tokens) == 0 {
			return nil, nil, fmt.Errorf("reference %d has no tokens", i)
		}
		if len(hyps[i].Tokens) == 0 {
			return nil, nil, fmt.Errorf("prediction %d has no tokens", i)
		}
	}
	return refs, hyps, nil
}
