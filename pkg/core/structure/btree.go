package structure

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
)

// DefaultFanout is the maximum number of entries a node holds before it splits.
const DefaultFanout = 4

var ErrInvalidFanout = errors.New("btree: fanout must be even and greater than 2")

// entry is a leaf (key, val) pair or an internal (separator, next) pair, never both.
type entry[K cmp.Ordered, V any] struct {
	key  K
	val  V
	next *node[K, V]
}

type node[K cmp.Ordered, V any] struct {
	entries []entry[K, V]
}

func newNode[K cmp.Ordered, V any](fanout int) *node[K, V] {
	return &node[K, V]{entries: make([]entry[K, V], 0, fanout)}
}

// BTree is a balanced multiway search tree. All leaves sit at depth height;
// each non-root node keeps between fanout/2 and fanout-1 entries.
// Not safe for concurrent mutation.
type BTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	height int
	n      int
	fanout int
}

func NewBTree[K cmp.Ordered, V any]() *BTree[K, V] {
	t, _ := NewBTreeWithFanout[K, V](DefaultFanout)
	return t
}

func NewBTreeWithFanout[K cmp.Ordered, V any](fanout int) (*BTree[K, V], error) {
	if fanout <= 2 || fanout%2 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFanout, fanout)
	}
	return &BTree[K, V]{
		root:   newNode[K, V](fanout),
		fanout: fanout,
	}, nil
}

// Size returns the number of distinct keys.
func (t *BTree[K, V]) Size() int { return t.n }

// Height returns the depth of the leaves; a lone leaf root has height 0.
func (t *BTree[K, V]) Height() int { return t.height }

func (t *BTree[K, V]) Fanout() int { return t.fanout }

// Get returns the value stored under key. The boolean is false when the key
// is absent, so a stored zero value is never confused with a miss.
func (t *BTree[K, V]) Get(key K) (V, bool) {
	x := t.root
	for ht := t.height; ht > 0; ht-- {
		x = x.entries[childIndex(x, key)].next
	}
	for _, e := range x.entries {
		if e.key == key {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

// childIndex picks the last child whose separator is <= key, or the first
// child when key is smaller than every separator.
func childIndex[K cmp.Ordered, V any](x *node[K, V], key K) int {
	m := len(x.entries)
	for j := 0; j < m; j++ {
		if j+1 == m || key < x.entries[j+1].key {
			return j
		}
	}
	return 0
}

// Put inserts key, overwriting the value if the key is already present.
func (t *BTree[K, V]) Put(key K, val V) {
	u, added := t.insert(t.root, key, val, t.height)
	if added {
		t.n++
	}
	if u == nil {
		return
	}

	root := newNode[K, V](t.fanout)
	root.entries = append(root.entries,
		entry[K, V]{key: t.root.entries[0].key, next: t.root},
		entry[K, V]{key: u.entries[0].key, next: u},
	)
	t.root = root
	t.height++
}

// insert returns the new right sibling when h splits, and whether a new key
// was added (false on overwrite).
func (t *BTree[K, V]) insert(h *node[K, V], key K, val V, ht int) (*node[K, V], bool) {
	var (
		j int
		e entry[K, V]
	)
	added := true

	if ht == 0 {
		for j = 0; j < len(h.entries); j++ {
			if h.entries[j].key == key {
				h.entries[j].val = val
				return nil, false
			}
			if key < h.entries[j].key {
				break
			}
		}
		e = entry[K, V]{key: key, val: val}
	} else {
		j = childIndex(h, key)
		var u *node[K, V]
		u, added = t.insert(h.entries[j].next, key, val, ht-1)
		if u == nil {
			return nil, added
		}
		e = entry[K, V]{key: u.entries[0].key, next: u}
		j++
	}

	h.entries = insertAt(h.entries, j, e)
	if len(h.entries) < t.fanout {
		return nil, added
	}
	return t.split(h), added
}

func insertAt[K cmp.Ordered, V any](s []entry[K, V], i int, e entry[K, V]) []entry[K, V] {
	s = append(s, entry[K, V]{})
	copy(s[i+1:], s[i:])
	s[i] = e
	return s
}

// split moves the top half of h into a new right sibling.
func (t *BTree[K, V]) split(h *node[K, V]) *node[K, V] {
	half := t.fanout / 2
	sib := newNode[K, V](t.fanout)
	sib.entries = append(sib.entries, h.entries[half:]...)
	clear(h.entries[half:])
	h.entries = h.entries[:half]
	return sib
}

// Ascend calls fn for every entry in ascending key order until fn returns false.
func (t *BTree[K, V]) Ascend(fn func(key K, val V) bool) {
	t.ascend(t.root, t.height, fn)
}

func (t *BTree[K, V]) ascend(x *node[K, V], ht int, fn func(K, V) bool) bool {
	for _, e := range x.entries {
		if ht == 0 {
			if !fn(e.key, e.val) {
				return false
			}
			continue
		}
		if !t.ascend(e.next, ht-1, fn) {
			return false
		}
	}
	return true
}

// String renders the tree with one entry per line, separators in parentheses.
func (t *BTree[K, V]) String() string {
	var sb strings.Builder
	t.render(&sb, t.root, t.height, "")
	return sb.String()
}

func (t *BTree[K, V]) render(sb *strings.Builder, x *node[K, V], ht int, indent string) {
	for j, e := range x.entries {
		if ht == 0 {
			fmt.Fprintf(sb, "%s%v %v\n", indent, e.key, e.val)
			continue
		}
		if j > 0 {
			fmt.Fprintf(sb, "%s(%v)\n", indent, e.key)
		}
		t.render(sb, e.next, ht-1, indent+"     ")
	}
}
