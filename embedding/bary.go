package embedding

import (
	"context"
	"strconv"

	"github.com/datar-psa/nlgeval/api"
)

// BaryScoreRegs are the regularizations for which Sinkhorn costs are reported
// as "baryscore_SD_<reg>".
var BaryScoreRegs = []float64{10, 1, 5, 0.5, 0.1}

// BaryScoreOptions configures BaryScore
type BaryScoreOptions struct {
	// DisableIDF uses uniform token weights instead of idf weights
	DisableIDF bool
	// Tokenizer overrides the default lowercasing word tokenizer
	Tokenizer api.Tokenizer
	// Window is the context window embedded with each token
	Window int
}

// BaryScore is the transport distance between the idf-weighted token embedding clouds
// of a reference and a prediction. Lower is better.
type BaryScore struct {
	idfState
}

var _ api.SimilarityMeasure = (*BaryScore)(nil)

// NewBaryScore creates a BaryScore measure over the given embedder
func NewBaryScore(embedder api.Embedder, opts BaryScoreOptions) *BaryScore {
	return &BaryScore{idfState: idfState{
		useIDF: !opts.DisableIDF,
		te:     NewTokenEmbedder(embedder, TokenEmbedderOptions{Tokenizer: opts.Tokenizer, Window: opts.Window}),
	}}
}

// EvaluateBatch returns "baryscore_W" and one "baryscore_SD_<reg>" list per regularization.
func (b *BaryScore) EvaluateBatch(ctx context.Context, references, predictions []string) (map[string][]float64, error) {
	refs, hyps, err := embedPairs(ctx, b.te, references, predictions)
	if err != nil {
		return nil, err
	}
	idfRef, idfHyp, err := b.idfs(ctx, references, predictions)
	if err != nil {
		return nil, err
	}

	out := map[string][]float64{"baryscore_W": make([]float64, len(refs))}
	for _, reg := range BaryScoreRegs {
		out[sdKey(reg)] = make([]float64, len(refs))
	}

	for i := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hw, hv := support(normalizeWeights(idfHyp.Weights(hyps[i].Tokens)), hyps[i].Vectors)
		rw, rv := support(normalizeWeights(idfRef.Weights(refs[i].Tokens)), refs[i].Vectors)
		cost := euclideanCost(hv, rv)

		out["baryscore_W"][i] = wasserstein(hw, rw, cost)
		for _, reg := range BaryScoreRegs {
			out[sdKey(reg)][i], _ = sinkhorn(hw, rw, cost, reg, nil)
		}
	}
	return out, nil
}

func sdKey(reg float64) string {
	return "baryscore_SD_" + strconv.FormatFloat(reg, 'g', -1, 64)
}
