package memory

import (
	"rankdb/pkg/common"

	"github.com/google/btree"
)

// viewLess orders by value, then by key so equal values have a stable order.
func viewLess(a, b common.Record) bool {
	if a.Value != b.Value {
		return a.Value < b.Value
	}
	return a.Key < b.Key
}

// SortedView is the value-ascending ordering of one attribute column.
// It is built incrementally by Add and frozen by Seal; after Seal it is
// read-only and safe to share between goroutines.
type SortedView struct {
	tree    *btree.BTreeG[common.Record]
	records []common.Record
}

func NewSortedView(degree int) *SortedView {
	return &SortedView{
		tree: btree.NewG[common.Record](degree, viewLess),
	}
}

func (v *SortedView) Add(key common.KeyType, val common.ValueType) {
	v.tree.ReplaceOrInsert(common.Record{Key: key, Value: val})
}

// Seal materialises the ordering into a slice for positional access.
func (v *SortedView) Seal() {
	if v.tree == nil {
		return
	}
	v.records = make([]common.Record, 0, v.tree.Len())
	v.tree.Ascend(func(r common.Record) bool {
		v.records = append(v.records, r)
		return true
	})
	v.tree = nil
}

func (v *SortedView) Sealed() bool {
	return v.tree == nil
}

func (v *SortedView) Len() int {
	if v.tree != nil {
		return v.tree.Len()
	}
	return len(v.records)
}

// At returns the record at ascending position i; position Len()-1 holds the highest value.
func (v *SortedView) At(i int) common.Record {
	return v.records[i]
}
