package structure

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"

	"rankdb/pkg/common"
)

// BloomFilter answers "definitely absent" for record keys before a tree lookup.
// Add is not safe for concurrent use.
type BloomFilter struct {
	bitset []bool
	k      uint
	m      uint
	count  uint
}

func NewBloomFilter(n uint, p float64) *BloomFilter {
	if n == 0 {
		n = 1
	}
	if p <= 0 || p >= 1 {
		p = 0.01
	}
	// m = - (n * ln(p)) / (ln(2)^2)
	// k = (m / n) * ln(2)
	m := uint(math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)))
	k := uint(math.Ceil((float64(m) / float64(n)) * math.Ln2))
	if k == 0 {
		k = 1
	}

	return &BloomFilter{
		bitset: make([]bool, m),
		k:      k,
		m:      m,
	}
}

func (bf *BloomFilter) Add(key common.KeyType) {
	h1, h2 := hashKey(key)
	for i := uint(0); i < bf.k; i++ {
		bf.bitset[(h1+uint64(i)*h2)%uint64(bf.m)] = true
	}
	bf.count++
}

func (bf *BloomFilter) Contains(key common.KeyType) bool {
	h1, h2 := hashKey(key)
	for i := uint(0); i < bf.k; i++ {
		if !bf.bitset[(h1+uint64(i)*h2)%uint64(bf.m)] {
			return false
		}
	}
	return true
}

// hashKey derives the two double-hashing seeds from one xxhash digest.
func hashKey(key common.KeyType) (uint64, uint64) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(key))
	h := xxhash.Sum64(buf[:])
	return h & 0xffffffff, (h >> 32) | 1
}

func (bf *BloomFilter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"bloom_bits_size": bf.m,
		"bloom_hashes":    bf.k,
		"bloom_count":     bf.count,
	}
}
