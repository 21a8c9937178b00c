// Package structures provides the library's high-performance data structures.
package structures

import (
	"log/slog"
	"math"

	"github.com/wyfcoding/filterkit/bitset"
	"github.com/wyfcoding/filterkit/decompose"
	"github.com/wyfcoding/filterkit/hashing"
	"github.com/wyfcoding/filterkit/xerrors"
)

// BloomFilter is a double-hashed, optimally-sized membership filter. It
// never produces a false negative; false positives occur at approximately
// the configured rate once filled to the expected cardinality.
type BloomFilter[T any] struct {
	bits     *bitset.BitArray
	size     uint
	hashFunc uint
	hash     hashing.Hash
	pipeline *decompose.Pipeline[T]
}

// NewBloomFilter constructs a filter sized for expectedElements insertions
// at the given falsePositiveRate. m is floored, k is rounded (not ceiled) --
// see DESIGN.md for why this deviates from the naive ceil/ceil formula.
func NewBloomFilter[T any](expectedElements uint, falsePositiveRate float64, opts ...BloomOption[T]) (*BloomFilter[T], error) {
	if expectedElements == 0 {
		return nil, xerrors.ErrCapacityTooSmall
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		return nil, xerrors.ErrInvalidProbabilities
	}

	n := float64(expectedElements)
	m := uint(math.Floor(-n * math.Log(falsePositiveRate) / (math.Ln2 * math.Ln2)))
	if m == 0 {
		m = 1
	}
	k := uint(math.Round(float64(m) / n * math.Ln2))
	if k < 1 {
		k = 1
	}

	bf := &BloomFilter[T]{
		bits:     bitset.New(m),
		size:     m,
		hashFunc: k,
		hash:     hashing.Default,
	}
	for _, opt := range opts {
		opt(bf)
	}
	if bf.pipeline == nil {
		bf.pipeline = decompose.NewPipeline[T](nil)
	}

	slog.Info("BloomFilter initialized",
		"expected_elements", expectedElements,
		"false_positive_rate", falsePositiveRate,
		"bits", m,
		"hash_functions", k,
	)

	return bf, nil
}

// BloomOption customizes construction.
type BloomOption[T any] func(*BloomFilter[T])

// WithHash overrides the default hash provider.
func WithHash[T any](h hashing.Hash) BloomOption[T] {
	return func(bf *BloomFilter[T]) { bf.hash = h }
}

// WithDecomposer overrides the default textify decomposer.
func WithDecomposer[T any](d decompose.Decomposer[T]) BloomOption[T] {
	return func(bf *BloomFilter[T]) { bf.pipeline = decompose.NewPipeline(d) }
}

// Add routes value through the decomposer pipeline and inserts it.
func (bf *BloomFilter[T]) Add(value T) bool {
	return bf.AddBytes(bf.pipeline.Bytes(value))
}

// Contains routes value through the decomposer pipeline and tests it.
func (bf *BloomFilter[T]) Contains(value T) bool {
	return bf.ContainsBytes(bf.pipeline.Bytes(value))
}

// AddBytes sets the k derived bit positions for data. Returns true iff any
// bit transitioned 0->1. A nil data slice is a contract violation.
func (bf *BloomFilter[T]) AddBytes(data []byte) bool {
	if data == nil {
		panic(xerrors.ErrNilItem)
	}
	h1, h2 := bf.getHashes(data)
	changed := false
	for i := uint32(1); i <= uint32(bf.hashFunc); i++ {
		g := h1 + i*h2
		idx := uint(g) % bf.size
		if bf.bits.SetBit(idx) {
			changed = true
		}
	}
	return changed
}

// ContainsBytes returns true iff all k derived bit positions are set.
func (bf *BloomFilter[T]) ContainsBytes(data []byte) bool {
	if data == nil {
		panic(xerrors.ErrNilItem)
	}
	h1, h2 := bf.getHashes(data)
	for i := uint32(1); i <= uint32(bf.hashFunc); i++ {
		g := h1 + i*h2
		idx := uint(g) % bf.size
		if !bf.bits.GetBit(idx) {
			return false
		}
	}
	return true
}

// getHashes splits the 64-bit digest into low/high unsigned 32-bit halves.
// Plain truncation, not unsafe pointer reinterpretation: see DESIGN.md for
// why cast.Uint64ToUint32 was rejected for this correctness-critical path.
func (bf *BloomFilter[T]) getHashes(data []byte) (h1, h2 uint32) {
	h := bf.hash.Sum64(data)
	h1 = uint32(h)
	h2 = uint32(h >> 32)
	return h1, h2
}
