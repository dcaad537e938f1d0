package topk

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"rankdb/pkg/common"
	"rankdb/pkg/core/memory"
)

// ThresholdAlgorithm returns the same top-k entries as NaiveScan while reading
// the sorted views from their highest values downward.
//
// Each round reads one position from every view and scores keys not seen
// before. Every unseen key sits below the cursor in every view, so its score
// is bounded by the weighted sum of the values at the next cursor position.
// The run stops once the heap is full and its minimum exceeds that bound, or
// when the views are exhausted. Soundness needs finite non-negative weights.
func ThresholdAlgorithm(ctx context.Context, t Table, weights []float64, k int) (*Result, error) {
	if err := validate(t, weights, k); err != nil {
		return nil, err
	}
	if !t.Sealed() {
		return nil, common.ErrNotSealed
	}

	n := t.Len()
	views := make([]*memory.SortedView, len(weights))
	for i := range views {
		views[i] = t.View(i)
		if views[i].Len() != n {
			return nil, fmt.Errorf("view %d holds %d records, table holds %d", i, views[i].Len(), n)
		}
	}

	h := NewHeap(k)
	seen := roaring.New()
	var st Stats

	for pos := n - 1; pos >= 0; pos-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st.Rounds++
		for _, v := range views {
			rec := v.At(pos)
			st.SortedAccesses++
			if !seen.CheckedAdd(uint32(rec.Key)) {
				continue
			}
			s, err := Score(t, weights, rec.Key)
			if err != nil {
				return nil, err
			}
			st.Scored++
			h.Offer(rec.Key, s)
		}

		if pos == 0 {
			break
		}
		// Strict: an unseen record tied with the k-th entry may still win on key.
		if kth, ok := h.Min(); ok && h.Full() && kth.Score > bound(views, weights, pos-1) {
			st.EarlyStop = true
			break
		}
	}

	return &Result{
		Strategy: Threshold,
		K:        k,
		Entries:  h.DrainDescending(),
		Stats:    st,
	}, nil
}

// bound is the best score any record at or below pos in every view can reach.
func bound(views []*memory.SortedView, weights []float64, pos int) float64 {
	var t float64
	for i, v := range views {
		t += weights[i] * float64(v.At(pos).Value)
	}
	return t
}
