package embedding

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/datar-psa/nlgeval/api"
)

// DepthScoreOptions configures DepthScore
type DepthScoreOptions struct {
	// P is the exponent of the DR distance; 0 means 5
	P float64
	// Eps is the lowest depth level considered, in (0,1]; 0 means 0.3
	Eps float64
	// NAlpha is the number of depth levels between Eps and 1; 0 means 5
	NAlpha int
	// Directions is the number of random projections; 0 means 1000
	Directions int
	// Seed makes the random projections reproducible
	Seed uint64
	// Tokenizer overrides the default lowercasing word tokenizer
	Tokenizer api.Tokenizer
	// Window is the context window embedded with each token
	Window int
}

// DepthScore compares the token embedding clouds of a reference and a prediction
// through the depth-trimmed regions of the integrated rank-weighted depth. Lower is better.
type DepthScore struct {
	idfState
	opts DepthScoreOptions
}

var _ api.SimilarityMeasure = (*DepthScore)(nil)

// NewDepthScore creates a DepthScore measure over the given embedder.
// Zero options take their defaults; negative counts and an Eps outside (0,1] are rejected.
func NewDepthScore(embedder api.Embedder, opts DepthScoreOptions) (*DepthScore, error) {
	if opts.P == 0 {
		opts.P = 5
	}
	if opts.Eps == 0 {
		opts.Eps = 0.3
	}
	if opts.NAlpha == 0 {
		opts.NAlpha = 5
	}
	if opts.Directions == 0 {
		opts.Directions = 1000
	}

	switch {
	case opts.P < 0:
		return nil, fmt.Errorf("p must be positive, got %v", opts.P)
	case opts.Eps < 0 || opts.Eps > 1:
		return nil, fmt.Errorf("eps must be in (0, 1], got %v", opts.Eps)
	case opts.NAlpha < 0:
		return nil, fmt.Errorf("n_alpha must be positive, got %d", opts.NAlpha)
	case opts.Directions < 0:
		return nil, fmt.Errorf("directions must be positive, got %d", opts.Directions)
	case opts.Window < 0:
		return nil, fmt.Errorf("window must not be negative, got %d", opts.Window)
	}

	return &DepthScore{
		idfState: idfState{
			te: NewTokenEmbedder(embedder, TokenEmbedderOptions{Tokenizer: opts.Tokenizer, Window: opts.Window}),
		},
		opts: opts,
	}, nil
}

// EvaluateBatch returns "depth_score" for every pair. Depth does not weight tokens,
// so prepared idf statistics are not used.
func (d *DepthScore) EvaluateBatch(ctx context.Context, references, predictions []string) (map[string][]float64, error) {
	refs, hyps, err := embedPairs(ctx, d.te, references, predictions)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(refs))
	var dirs [][]float64
	for i := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dim := len(refs[i].Vectors[0])
		if dirs == nil || len(dirs[0]) != dim {
			dirs = sphere(d.opts.Directions, dim, d.opts.Seed)
		}
		scores[i] = d.drDistance(hyps[i].Vectors, refs[i].Vectors, dirs)
	}
	return map[string][]float64{"depth_score": scores}, nil
}

// drDistance is the DR distance between point clouds x and y.
func (d *DepthScore) drDistance(x, y, dirs [][]float64) float64 {
	projX := project(x, dirs)
	projY := project(y, dirs)
	depthX := irwDepth(projX)
	depthY := irwDepth(projY)

	alphas := linspace(math.Trunc(d.opts.Eps*100), 100, d.opts.NAlpha)
	var total float64
	for _, alpha := range alphas {
		suppX := supportFunction(projX, depthX, percentile(depthX, alpha))
		suppY := supportFunction(projY, depthY, percentile(depthY, alpha))
		var worst float64
		for k := range suppX {
			worst = max(worst, math.Pow(math.Abs(suppX[k]-suppY[k]), d.opts.P))
		}
		total += worst
	}
	return math.Pow(total/float64(len(alphas)), 1/d.opts.P)
}

// sphere draws n directions uniformly on the unit sphere of the given dimension.
func sphere(n, dim int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([][]float64, n)
	for k := range out {
		u := make([]float64, dim)
		for j := range u {
			u[j] = rng.NormFloat64()
		}
		out[k] = normalized(u)
	}
	return out
}

// project returns proj[i][k] = <points[i], dirs[k]>.
func project(points, dirs [][]float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = make([]float64, len(dirs))
		for k, u := range dirs {
			out[i][k] = floats.Dot(p, u)
		}
	}
	return out
}

// irwDepth is the integrated rank-weighted depth of every point, averaged over directions.
func irwDepth(proj [][]float64) []float64 {
	n := len(proj)
	depth := make([]float64, n)
	if n == 0 {
		return depth
	}
	dirs := len(proj[0])
	col := make([]float64, n)
	for k := 0; k < dirs; k++ {
		for i := range proj {
			col[i] = proj[i][k]
		}
		for i := range proj {
			var below, above int
			for j := range proj {
				if col[j] <= col[i] {
					below++
				}
				if col[j] >= col[i] {
					above++
				}
			}
			depth[i] += float64(min(below, above)) / float64(n)
		}
	}
	for i := range depth {
		depth[i] /= float64(dirs)
	}
	return depth
}

// supportFunction is the support function, per direction, of the points whose depth reaches level.
func supportFunction(proj [][]float64, depth []float64, level float64) []float64 {
	out := make([]float64, len(proj[0]))
	for k := range out {
		out[k] = math.Inf(-1)
	}
	for i, p := range proj {
		if depth[i] < level {
			continue
		}
		for k, v := range p {
			out[k] = max(out[k], v)
		}
	}
	return out
}

// percentile returns the q-th percentile (0-100) with linear interpolation between order statistics.
func percentile(values []float64, q float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

func linspace(start, stop float64, n int) []float64 {
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}
