package embedding

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	sinkhornMaxIter = 2000
	sinkhornTol     = 1e-9
)

// wassersteinRegs is the decreasing regularization schedule used to approach
// the unregularized transport cost.
var wassersteinRegs = []float64{1, 0.1, 0.01, 0.001}

// transport holds the dual potentials of an entropic OT problem.
type transport struct {
	f, g []float64
}

// sinkhorn solves the entropic optimal transport problem between weights a and b
// under cost c with regularization reg, in the log domain. Warm-starts from init when given.
// It returns the transport cost <P, C> of the resulting plan.
func sinkhorn(a, b []float64, c [][]float64, reg float64, init *transport) (float64, *transport) {
	n, m := len(a), len(b)
	logA := make([]float64, n)
	logB := make([]float64, m)
	for i := range a {
		logA[i] = math.Log(a[i])
	}
	for j := range b {
		logB[j] = math.Log(b[j])
	}

	t := &transport{f: make([]float64, n), g: make([]float64, m)}
	if init != nil {
		copy(t.f, init.f)
		copy(t.g, init.g)
	}

	row := make([]float64, m)
	col := make([]float64, n)
	for iter := 0; iter < sinkhornMaxIter; iter++ {
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				row[j] = (t.g[j] - c[i][j]) / reg
			}
			t.f[i] = reg * (logA[i] - floats.LogSumExp(row))
		}
		for j := 0; j < m; j++ {
			for i := 0; i < n; i++ {
				col[i] = (t.f[i] - c[i][j]) / reg
			}
			t.g[j] = reg * (logB[j] - floats.LogSumExp(col))
		}

		// columns are exact after the g update; check the row marginals
		var errSum float64
		for i := 0; i < n; i++ {
			var mass float64
			for j := 0; j < m; j++ {
				mass += math.Exp((t.f[i] + t.g[j] - c[i][j]) / reg)
			}
			errSum += math.Abs(mass - a[i])
		}
		if errSum < sinkhornTol {
			break
		}
	}

	var cost float64
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			cost += math.Exp((t.f[i]+t.g[j]-c[i][j])/reg) * c[i][j]
		}
	}
	return cost, t
}

// wasserstein approximates the unregularized transport cost by solving a sequence
// of entropic problems with decreasing regularization.
func wasserstein(a, b []float64, c [][]float64) float64 {
	var (
		cost float64
		t    *transport
	)
	for _, reg := range wassersteinRegs {
		cost, t = sinkhorn(a, b, c, reg, t)
	}
	return cost
}

// support drops points carrying no mass.
func support(weights []float64, points [][]float64) ([]float64, [][]float64) {
	w := make([]float64, 0, len(weights))
	p := make([][]float64, 0, len(points))
	for i, x := range weights {
		if x <= 0 {
			continue
		}
		w = append(w, x)
		p = append(p, points[i])
	}
	return w, p
}
