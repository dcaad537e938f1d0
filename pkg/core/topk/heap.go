package topk

import "rankdb/pkg/common"

// worse reports whether a ranks below b: lower score first, and on equal
// scores the larger key ranks lower.
func worse(a, b common.ScoredKey) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Key > b.Key
}

// Heap keeps the k best (key, score) pairs offered to it. The root is the
// current k-th best entry. We implement the sift operations directly instead
// of going through container/heap to keep ScoredKey values unboxed.
type Heap struct {
	k     int
	items []common.ScoredKey
}

func NewHeap(k int) *Heap {
	if k < 0 {
		k = 0
	}
	return &Heap{k: k, items: make([]common.ScoredKey, 0, k)}
}

func (h *Heap) Len() int   { return len(h.items) }
func (h *Heap) Cap() int   { return h.k }
func (h *Heap) Full() bool { return len(h.items) >= h.k }

// Min returns the lowest-ranked retained entry.
func (h *Heap) Min() (common.ScoredKey, bool) {
	if len(h.items) == 0 {
		return common.ScoredKey{}, false
	}
	return h.items[0], true
}

// Offer adds the pair, evicting the lowest-ranked entry once more than k are held.
// It reports whether the pair was retained.
func (h *Heap) Offer(key common.KeyType, score float64) bool {
	item := common.ScoredKey{Key: key, Score: score}
	if len(h.items) < h.k {
		h.items = append(h.items, item)
		h.up(len(h.items) - 1)
		return true
	}
	if h.k == 0 || !worse(h.items[0], item) {
		return false
	}
	h.items[0] = item
	h.down(0)
	return true
}

// Merge offers every entry of o. o is left untouched.
func (h *Heap) Merge(o *Heap) {
	for _, it := range o.items {
		h.Offer(it.Key, it.Score)
	}
}

// Drain removes every entry and returns them lowest-ranked first.
func (h *Heap) Drain() []common.ScoredKey {
	out := make([]common.ScoredKey, 0, len(h.items))
	for len(h.items) > 0 {
		out = append(out, h.pop())
	}
	return out
}

// DrainDescending is Drain in display order, best entry first.
func (h *Heap) DrainDescending() []common.ScoredKey {
	out := h.Drain()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (h *Heap) pop() common.ScoredKey {
	n := len(h.items)
	root := h.items[0]
	h.items[0] = h.items[n-1]
	h.items = h.items[:n-1]
	if len(h.items) > 0 {
		h.down(0)
	}
	return root
}

func (h *Heap) up(j int) {
	for j > 0 {
		i := (j - 1) / 2
		if !worse(h.items[j], h.items[i]) {
			break
		}
		h.items[i], h.items[j] = h.items[j], h.items[i]
		j = i
	}
}

func (h *Heap) down(i int) {
	n := len(h.items)
	for {
		j1 := 2*i + 1
		if j1 >= n {
			return
		}
		j := j1
		if j2 := j1 + 1; j2 < n && worse(h.items[j2], h.items[j1]) {
			j = j2
		}
		if !worse(h.items[j], h.items[i]) {
			return
		}
		h.items[i], h.items[j] = h.items[j], h.items[i]
		i = j
	}
}
