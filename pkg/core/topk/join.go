package topk

import (
	"context"
	"fmt"

	"rankdb/pkg/common"
	"rankdb/pkg/core/structure"
)

const joinBloomFalseProb = 0.01

// Source is one join input: raw rows keyed by the join column.
// Add it fully, Seal it, then share it read-only.
type Source struct {
	Name      string
	Header    []string
	KeyColumn int

	rows  [][]string
	index *structure.BTree[common.KeyType, int]
	bloom *structure.BloomFilter
}

func NewSource(name string, header []string, keyColumn int) *Source {
	return &Source{
		Name:      name,
		Header:    header,
		KeyColumn: keyColumn,
		index:     structure.NewBTree[common.KeyType, int](),
	}
}

// Add stores row under key; a repeated key keeps the last row.
// Keys added after Seal also go into the filter.
func (s *Source) Add(key common.KeyType, row []string) {
	if pos, ok := s.index.Get(key); ok {
		s.rows[pos] = row
		return
	}
	s.rows = append(s.rows, row)
	s.index.Put(key, len(s.rows)-1)
	if s.bloom != nil {
		s.bloom.Add(key)
	}
}

// Seal builds the membership filter.
func (s *Source) Seal() {
	bf := structure.NewBloomFilter(uint(s.index.Size()), joinBloomFalseProb)
	s.index.Ascend(func(key common.KeyType, _ int) bool {
		bf.Add(key)
		return true
	})
	s.bloom = bf
}

func (s *Source) Len() int { return s.index.Size() }

// Stats reports the row count and, once sealed, the filter sizing.
func (s *Source) Stats() map[string]interface{} {
	stats := map[string]interface{}{"rows": s.index.Size()}
	if s.bloom != nil {
		for k, v := range s.bloom.Stats() {
			stats[k] = v
		}
	}
	return stats
}

func (s *Source) Lookup(key common.KeyType) ([]string, bool) {
	if s.bloom != nil && !s.bloom.Contains(key) {
		return nil, false
	}
	pos, ok := s.index.Get(key)
	if !ok {
		return nil, false
	}
	return s.rows[pos], true
}

// Ascend visits rows in ascending key order.
func (s *Source) Ascend(fn func(key common.KeyType, row []string) bool) {
	s.index.Ascend(func(key common.KeyType, pos int) bool {
		return fn(key, s.rows[pos])
	})
}

// JoinMatch is one key present in both Left and Right. LeftIndex and
// RightIndex are the positions of the two sources in the join input.
type JoinMatch struct {
	Left       string
	Right      string
	LeftIndex  int
	RightIndex int
	Key        common.KeyType
	LeftRow  []string
	RightRow []string
}

// CoOccurrenceJoin returns, for every ordered pair of distinct sources, the
// rows whose keys occur in both. Pairs follow source order; matches within a
// pair follow ascending key order.
func CoOccurrenceJoin(ctx context.Context, sources []*Source) ([]JoinMatch, error) {
	if len(sources) < 2 {
		return nil, fmt.Errorf("%w: join needs at least two sources, got %d", common.ErrMalformedInput, len(sources))
	}

	var matches []JoinMatch
	for i, left := range sources {
		for j, right := range sources {
			if i == j {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			left.Ascend(func(key common.KeyType, row []string) bool {
				if other, ok := right.Lookup(key); ok {
					matches = append(matches, JoinMatch{
						Left:       left.Name,
						Right:      right.Name,
						LeftIndex:  i,
						RightIndex: j,
						Key:        key,
						LeftRow:    row,
						RightRow:   other,
					})
				}
				return true
			})
		}
	}
	return matches, nil
}
