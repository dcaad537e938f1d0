package core

import (
	"errors"
	"testing"

	"rankdb/pkg/common"
)

func TestNewIndexSetNeedsAttribute(t *testing.T) {
	if _, err := NewIndexSet([]string{"id"}, 4); !errors.Is(err, common.ErrMalformedInput) {
		t.Fatalf("got %v, want ErrMalformedInput", err)
	}
	if _, err := NewIndexSet([]string{"id", "a"}, 3); err == nil {
		t.Fatal("expected error for odd fanout")
	}
}

func TestInsertAttributeCountMismatch(t *testing.T) {
	s, _ := NewIndexSet([]string{"id", "a", "b"}, 4)
	if err := s.Insert(1, []common.ValueType{1}); !errors.Is(err, common.ErrMalformedInput) {
		t.Fatalf("got %v, want ErrMalformedInput", err)
	}
}

func TestSealBuildsViewsFromLatestValues(t *testing.T) {
	s, _ := NewIndexSet([]string{"id", "a"}, 4)
	for i := common.KeyType(0); i < 100; i++ {
		s.Insert(i, []common.ValueType{common.ValueType(i)})
	}
	// Overwriting a row must not leave its old value in the view.
	s.Insert(0, []common.ValueType{1000})

	if s.View(0) != nil {
		t.Fatal("View before Seal should be nil")
	}
	s.Seal()
	if !s.Sealed() || s.Len() != 100 {
		t.Fatalf("after Seal: sealed=%v len=%d", s.Sealed(), s.Len())
	}
	v := s.View(0)
	if v.Len() != 100 {
		t.Fatalf("view length: got %d, want 100", v.Len())
	}
	if top := v.At(v.Len() - 1); top.Key != 0 || top.Value != 1000 {
		t.Fatalf("view top: got %v, want key 0 value 1000", top)
	}
	for i := 1; i < v.Len(); i++ {
		if v.At(i-1).Value > v.At(i).Value {
			t.Fatalf("view not ascending at %d", i)
		}
	}

	if err := s.Insert(5, []common.ValueType{5}); err == nil {
		t.Fatal("Insert after Seal should fail")
	}
}

func TestValueMissingKey(t *testing.T) {
	s, _ := NewIndexSet([]string{"id", "a"}, 4)
	s.Insert(1, []common.ValueType{0})
	if v, err := s.Value(0, 1); err != nil || v != 0 {
		t.Fatalf("Value(0, 1): got (%d, %v), want stored zero", v, err)
	}
	if _, err := s.Value(0, 2); !errors.Is(err, common.ErrKeyNotFound) {
		t.Fatalf("Value(0, 2): got %v, want ErrKeyNotFound", err)
	}
	if _, err := s.Value(3, 1); err == nil {
		t.Fatal("Value with out-of-range attribute should fail")
	}
}

func TestKeysAscending(t *testing.T) {
	s, _ := NewIndexSet([]string{"id", "a"}, 4)
	for _, k := range []common.KeyType{5, -2, 9, 0} {
		s.Insert(k, []common.ValueType{1})
	}
	var got []common.KeyType
	s.Keys(func(k common.KeyType) bool {
		got = append(got, k)
		return true
	})
	want := []common.KeyType{-2, 0, 5, 9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys: got %v, want %v", got, want)
		}
	}
}
