package topk

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"rankdb/pkg/common"
)

func sourceOf(name string, keys ...common.KeyType) *Source {
	s := NewSource(name, []string{"id", "val"}, 0)
	for _, k := range keys {
		s.Add(k, []string{strconv.Itoa(int(k)), name})
	}
	s.Seal()
	return s
}

func TestCoOccurrenceJoinCollectsBothDirections(t *testing.T) {
	a := sourceOf("a", 1, 2, 3, 7)
	b := sourceOf("b", 3, 4, 1, 9)

	matches, err := CoOccurrenceJoin(context.Background(), []*Source{a, b})
	if err != nil {
		t.Fatalf("CoOccurrenceJoin: %v", err)
	}
	want := []struct {
		left, right string
		key         common.KeyType
	}{
		{"a", "b", 1}, {"a", "b", 3},
		{"b", "a", 1}, {"b", "a", 3},
	}
	if len(matches) != len(want) {
		t.Fatalf("got %d matches, want %d: %+v", len(matches), len(want), matches)
	}
	for i, w := range want {
		m := matches[i]
		if m.Left != w.left || m.Right != w.right || m.Key != w.key {
			t.Errorf("match %d: got %s->%s key %d, want %s->%s key %d", i, m.Left, m.Right, m.Key, w.left, w.right, w.key)
		}
		if m.LeftRow[1] != m.Left || m.RightRow[1] != m.Right {
			t.Errorf("match %d carries rows %v / %v", i, m.LeftRow, m.RightRow)
		}
	}
}

func TestCoOccurrenceJoinThreeSources(t *testing.T) {
	a := sourceOf("a", 1, 2)
	b := sourceOf("b", 2, 3)
	c := sourceOf("c", 2, 3, 1)

	matches, err := CoOccurrenceJoin(context.Background(), []*Source{a, b, c})
	if err != nil {
		t.Fatalf("CoOccurrenceJoin: %v", err)
	}
	pairs := make(map[string]int)
	for _, m := range matches {
		pairs[m.Left+m.Right]++
	}
	want := map[string]int{"ab": 1, "ba": 1, "ac": 2, "ca": 2, "bc": 2, "cb": 2}
	for p, n := range want {
		if pairs[p] != n {
			t.Errorf("pair %s: got %d matches, want %d", p, pairs[p], n)
		}
	}
}

func TestCoOccurrenceJoinNeedsTwoSources(t *testing.T) {
	_, err := CoOccurrenceJoin(context.Background(), []*Source{sourceOf("a", 1)})
	if !errors.Is(err, common.ErrMalformedInput) {
		t.Fatalf("got %v, want ErrMalformedInput", err)
	}
}

func TestSourceRepeatedKeyKeepsLastRow(t *testing.T) {
	s := NewSource("s", []string{"id", "v"}, 0)
	s.Add(5, []string{"5", "first"})
	s.Add(5, []string{"5", "second"})
	s.Seal()

	if s.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", s.Len())
	}
	row, ok := s.Lookup(5)
	if !ok || row[1] != "second" {
		t.Fatalf("Lookup(5): got (%v, %v), want second row", row, ok)
	}
	if _, ok := s.Lookup(6); ok {
		t.Fatal("Lookup(6): found a key never added")
	}
}

func TestSourceAddAfterSeal(t *testing.T) {
	s := sourceOf("a", 1, 2)
	if got := s.Stats()["bloom_count"]; got != uint(2) {
		t.Fatalf("bloom_count after Seal: got %v, want 2", got)
	}

	s.Add(40, []string{"40", "late"})
	row, ok := s.Lookup(40)
	if !ok || row[1] != "late" {
		t.Fatalf("Lookup(40) after late Add: got (%v, %v)", row, ok)
	}
	st := s.Stats()
	if st["rows"] != 3 || st["bloom_count"] != uint(3) {
		t.Fatalf("Stats after late Add: got %v", st)
	}

	b := sourceOf("b", 40)
	matches, err := CoOccurrenceJoin(context.Background(), []*Source{s, b})
	if err != nil || len(matches) != 2 {
		t.Fatalf("join on late key: got (%+v, %v), want 2 matches", matches, err)
	}
}

func TestCoOccurrenceJoinRecordsSourcePositions(t *testing.T) {
	a := sourceOf("x", 1)
	b := sourceOf("x", 1)
	matches, err := CoOccurrenceJoin(context.Background(), []*Source{a, b})
	if err != nil {
		t.Fatalf("CoOccurrenceJoin: %v", err)
	}
	if len(matches) != 2 ||
		matches[0].LeftIndex != 0 || matches[0].RightIndex != 1 ||
		matches[1].LeftIndex != 1 || matches[1].RightIndex != 0 {
		t.Fatalf("positions: got %+v", matches)
	}
}
