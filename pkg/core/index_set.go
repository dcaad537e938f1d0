package core

import (
	"fmt"

	"rankdb/pkg/common"
	"rankdb/pkg/core/memory"
	"rankdb/pkg/core/structure"
)

// viewDegree is the google/btree degree used while building sorted views.
const viewDegree = 32

// IndexSet holds the id index, one ordered index per attribute column and,
// once sealed, one sorted view per attribute. It is immutable after Seal.
type IndexSet struct {
	header []string
	ids    Index
	attrs  []Index
	views  []*memory.SortedView
	sealed bool
}

// NewIndexSet creates an empty set for the given header. header[0] names the
// id column; every further column is an attribute.
func NewIndexSet(header []string, fanout int) (*IndexSet, error) {
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: need an id column and at least one attribute, got %d columns", common.ErrMalformedInput, len(header))
	}
	ids, err := structure.NewBTreeWithFanout[common.KeyType, common.ValueType](fanout)
	if err != nil {
		return nil, err
	}
	s := &IndexSet{
		header: append([]string(nil), header...),
		ids:    ids,
		attrs:  make([]Index, len(header)-1),
	}
	for i := range s.attrs {
		s.attrs[i], _ = structure.NewBTreeWithFanout[common.KeyType, common.ValueType](fanout)
	}
	return s, nil
}

// Insert stores one row. A repeated id overwrites the earlier row.
func (s *IndexSet) Insert(id common.KeyType, values []common.ValueType) error {
	if s.sealed {
		return fmt.Errorf("insert into sealed index set")
	}
	if len(values) != len(s.attrs) {
		return fmt.Errorf("%w: row %d has %d attributes, header has %d", common.ErrMalformedInput, id, len(values), len(s.attrs))
	}
	s.ids.Put(id, common.ValueType(id))
	for i, v := range values {
		s.attrs[i].Put(id, v)
	}
	return nil
}

// Seal builds the sorted views and freezes the set.
func (s *IndexSet) Seal() {
	if s.sealed {
		return
	}
	s.views = make([]*memory.SortedView, len(s.attrs))
	for i, idx := range s.attrs {
		v := memory.NewSortedView(viewDegree)
		idx.Ascend(func(key common.KeyType, val common.ValueType) bool {
			v.Add(key, val)
			return true
		})
		v.Seal()
		s.views[i] = v
	}
	s.sealed = true
}

func (s *IndexSet) Sealed() bool { return s.sealed }

// Header returns the column names, id column first.
func (s *IndexSet) Header() []string { return s.header }

func (s *IndexSet) AttributeCount() int { return len(s.attrs) }

// Len returns the number of distinct record ids.
func (s *IndexSet) Len() int { return s.ids.Size() }

func (s *IndexSet) Contains(key common.KeyType) bool {
	_, ok := s.ids.Get(key)
	return ok
}

// Value reads attribute attr of record key.
func (s *IndexSet) Value(attr int, key common.KeyType) (common.ValueType, error) {
	if attr < 0 || attr >= len(s.attrs) {
		return 0, fmt.Errorf("attribute %d out of range [0,%d)", attr, len(s.attrs))
	}
	v, ok := s.attrs[attr].Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: %d", common.ErrKeyNotFound, key)
	}
	return v, nil
}

// Row returns every attribute of record key in header order.
func (s *IndexSet) Row(key common.KeyType) ([]common.ValueType, error) {
	if !s.Contains(key) {
		return nil, fmt.Errorf("%w: %d", common.ErrKeyNotFound, key)
	}
	row := make([]common.ValueType, len(s.attrs))
	for i, idx := range s.attrs {
		row[i], _ = idx.Get(key)
	}
	return row, nil
}

// Keys visits every record id in ascending order.
func (s *IndexSet) Keys(fn func(key common.KeyType) bool) {
	s.ids.Ascend(func(key common.KeyType, _ common.ValueType) bool {
		return fn(key)
	})
}

// View returns the sorted view of attribute attr; nil before Seal.
func (s *IndexSet) View(attr int) *memory.SortedView {
	if !s.sealed {
		return nil
	}
	return s.views[attr]
}

// Height reports the tree height of the id index.
func (s *IndexSet) Height() int { return s.ids.Height() }
