package topk

import (
	"fmt"
	"sort"

	"rankdb/pkg/common"
	"rankdb/pkg/core/memory"
)

// memTable is a map-backed Table for strategy tests.
type memTable struct {
	keys  []common.KeyType
	cols  []map[common.KeyType]common.ValueType
	views []*memory.SortedView
}

func newMemTable(attrs int, rows map[common.KeyType][]common.ValueType) *memTable {
	t := &memTable{
		cols:  make([]map[common.KeyType]common.ValueType, attrs),
		views: make([]*memory.SortedView, attrs),
	}
	for i := range t.cols {
		t.cols[i] = make(map[common.KeyType]common.ValueType, len(rows))
		t.views[i] = memory.NewSortedView(8)
	}
	for key, vals := range rows {
		t.keys = append(t.keys, key)
		for i, v := range vals {
			t.cols[i][key] = v
			t.views[i].Add(key, v)
		}
	}
	sort.Slice(t.keys, func(i, j int) bool { return t.keys[i] < t.keys[j] })
	for _, v := range t.views {
		v.Seal()
	}
	return t
}

func (t *memTable) AttributeCount() int { return len(t.cols) }
func (t *memTable) Len() int            { return len(t.keys) }
func (t *memTable) Sealed() bool        { return true }

func (t *memTable) Keys(fn func(common.KeyType) bool) {
	for _, k := range t.keys {
		if !fn(k) {
			return
		}
	}
}

func (t *memTable) Value(attr int, key common.KeyType) (common.ValueType, error) {
	v, ok := t.cols[attr][key]
	if !ok {
		return 0, fmt.Errorf("%w: %d", common.ErrKeyNotFound, key)
	}
	return v, nil
}

func (t *memTable) View(attr int) *memory.SortedView { return t.views[attr] }
