package topk

import (
	"context"

	"golang.org/x/sync/errgroup"

	"rankdb/pkg/common"
)

// ctxCheckEvery bounds how many records are scored between context checks.
const ctxCheckEvery = 1024

type Options struct {
	// Workers > 1 scores disjoint key ranges concurrently. Each worker fills
	// its own heap; only the caller merges them.
	Workers int
}

// NaiveScan scores every record of t and keeps the k best.
func NaiveScan(ctx context.Context, t Table, weights []float64, k int, opts Options) (*Result, error) {
	if err := validate(t, weights, k); err != nil {
		return nil, err
	}
	if opts.Workers > 1 && t.Len() > opts.Workers {
		return naiveParallel(ctx, t, weights, k, opts.Workers)
	}

	h := NewHeap(k)
	var (
		scored int
		err    error
	)
	t.Keys(func(key common.KeyType) bool {
		if scored%ctxCheckEvery == 0 {
			if err = ctx.Err(); err != nil {
				return false
			}
		}
		var s float64
		if s, err = Score(t, weights, key); err != nil {
			return false
		}
		h.Offer(key, s)
		scored++
		return true
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		Strategy: Naive,
		K:        k,
		Entries:  h.DrainDescending(),
		Stats:    Stats{Scored: scored},
	}, nil
}

func naiveParallel(ctx context.Context, t Table, weights []float64, k, workers int) (*Result, error) {
	keys := make([]common.KeyType, 0, t.Len())
	t.Keys(func(key common.KeyType) bool {
		keys = append(keys, key)
		return true
	})

	heaps := make([]*Heap, workers)
	chunk := (len(keys) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo := w * chunk
		w := w
		hi := min(lo+chunk, len(keys))
		if lo >= hi {
			break
		}
		g.Go(func() error {
			h := NewHeap(k)
			for i, key := range keys[lo:hi] {
				if i%ctxCheckEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				s, err := Score(t, weights, key)
				if err != nil {
					return err
				}
				h.Offer(key, s)
			}
			heaps[w] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := NewHeap(k)
	for _, h := range heaps {
		if h != nil {
			merged.Merge(h)
		}
	}
	return &Result{
		Strategy: Naive,
		K:        k,
		Entries:  merged.DrainDescending(),
		Stats:    Stats{Scored: len(keys)},
	}, nil
}
