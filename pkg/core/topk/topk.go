// Package topk ranks records by a non-negative weighted sum of their
// attributes. NaiveScan scores every record; ThresholdAlgorithm walks the
// per-attribute sorted views from the top and stops once no unseen record can
// beat the current k-th best score.
package topk

import (
	"fmt"
	"math"

	"rankdb/pkg/common"
	"rankdb/pkg/core/memory"
)

// Table is the read-only view of an ingested table the strategies consume.
type Table interface {
	AttributeCount() int
	Len() int
	Keys(fn func(key common.KeyType) bool)
	Value(attr int, key common.KeyType) (common.ValueType, error)
	View(attr int) *memory.SortedView
	Sealed() bool
}

// Stats describes the work one ranking run performed.
type Stats struct {
	Scored         int  // records whose full score was computed
	SortedAccesses int  // positions read from sorted views
	Rounds         int  // threshold rounds
	EarlyStop      bool // threshold stopped before exhausting the views
}

type Result struct {
	Strategy Strategy
	K        int
	Entries  []common.ScoredKey // best first
	Stats    Stats
}

// Keys returns the result keys in rank order.
func (r *Result) Keys() []common.KeyType {
	keys := make([]common.KeyType, len(r.Entries))
	for i, e := range r.Entries {
		keys[i] = e.Key
	}
	return keys
}

func validate(t Table, weights []float64, k int) error {
	if k < 1 {
		return fmt.Errorf("%w: got %d", common.ErrInvalidK, k)
	}
	if len(weights) != t.AttributeCount() {
		return fmt.Errorf("%w: %d weights for %d attributes", common.ErrWeightCountMismatch, len(weights), t.AttributeCount())
	}
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is %v", common.ErrNegativeWeight, i, w)
		}
	}
	return nil
}

// Score computes the weighted sum of every attribute of key.
func Score(t Table, weights []float64, key common.KeyType) (float64, error) {
	var score float64
	for i, w := range weights {
		v, err := t.Value(i, key)
		if err != nil {
			return 0, err
		}
		score += w * float64(v)
	}
	return score, nil
}
