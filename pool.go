package nlgeval

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/datar-psa/nlgeval/api"
)

type pairParam struct {
	idx     int
	ctx     context.Context
	scorer  api.Scorer
	in      api.ScoreInputs
	results []api.Score
	done    func()
	wg      *sync.WaitGroup
}

func (p *pairParam) reset() {
	p.idx = 0
	p.ctx = nil
	p.scorer = nil
	p.in = api.ScoreInputs{}
	p.results = nil
	p.done = nil
	p.wg = nil
}

var pairParamPool = &sync.Pool{
	New: func() any { return new(pairParam) },
}

func createPairPool(size int) (*ants.PoolWithFunc, error) {
	if size <= 0 {
		return nil, errors.New("pool size must be greater than 0")
	}
	pool, err := ants.NewPoolWithFunc(size, func(args any) {
		param, ok := args.(*pairParam)
		if !ok {
			panic("pair pool args type error")
		}
		wg := param.wg
		done := param.done
		defer func() {
			done()
			wg.Done()
			param.reset()
			pairParamPool.Put(param)
		}()
		param.results[param.idx] = param.scorer.Score(param.ctx, param.in)
	})
	if err != nil {
		return nil, fmt.Errorf("create pair pool: %w", err)
	}
	return pool, nil
}

// scorePairs scores every (reference, prediction) pair, keeping input order.
// done is called after each pair.
func scorePairs(ctx context.Context, scorer api.Scorer, references, predictions []string, workers int, done func()) ([]api.Score, error) {
	results := make([]api.Score, len(references))
	if workers <= 1 || len(references) <= 1 {
		for i := range references {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = scorer.Score(ctx, api.ScoreInputs{Output: predictions[i], Expected: references[i]})
			done()
		}
		return results, nil
	}

	pool, err := createPairPool(min(workers, len(references)))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range references {
		wg.Add(1)
		param := pairParamPool.Get().(*pairParam)
		param.idx = i
		param.ctx = ctx
		param.scorer = scorer
		param.in = api.ScoreInputs{Output: predictions[i], Expected: references[i]}
		param.results = results
		param.done = done
		param.wg = &wg
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			results[i] = api.Score{Error: fmt.Errorf("submit pair %d: %w", i, err)}
			param.reset()
			pairParamPool.Put(param)
		}
	}
	wg.Wait()
	return results, ctx.Err()
}
