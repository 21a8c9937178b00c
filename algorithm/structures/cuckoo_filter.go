package structures

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"math/bits"
	"sync"

	"github.com/wyfcoding/filterkit/decompose"
	"github.com/wyfcoding/filterkit/hashing"
	"github.com/wyfcoding/filterkit/xerrors"
)

const (
	bucketSize = 4
	maxKicks   = 500
)

// fingerprintBucket is a fixed-capacity multiset of bucketSize fingerprints.
type fingerprintBucket [][]byte

func newBucket() fingerprintBucket {
	return make(fingerprintBucket, bucketSize)
}

func (b fingerprintBucket) insert(fp []byte) bool {
	for i := range b {
		if b[i] == nil {
			b[i] = fp
			return true
		}
	}
	return false
}

func (b fingerprintBucket) contains(fp []byte) bool {
	for i := range b {
		if b[i] != nil && bytes.Equal(b[i], fp) {
			return true
		}
	}
	return false
}

func (b fingerprintBucket) delete(fp []byte) bool {
	for i := range b {
		if b[i] != nil && bytes.Equal(b[i], fp) {
			b[i] = nil
			return true
		}
	}
	return false
}

// swap picks a uniformly random slot, replaces it with fp, and returns the
// evicted occupant (nil if the slot was empty).
func (b fingerprintBucket) swap(fp []byte) []byte {
	var r [1]byte
	_, _ = rand.Read(r[:])
	slot := int(r[0]) % bucketSize
	evicted := b[slot]
	b[slot] = fp
	return evicted
}

// CuckooFilter is a fingerprint-based membership filter offering two
// candidate buckets per item and bounded eviction on collision. Mutations
// (Add, Delete) are guarded by a single filter-wide mutex; kick chains span
// buckets and cannot be made safe with per-bucket locks alone.
type CuckooFilter[T any] struct {
	mu              sync.Mutex
	buckets         []fingerprintBucket
	count           uint
	size            uint
	mask            uint
	fingerprintSize int
	hash            hashing.FNVMixer
	pipeline        *decompose.Pipeline[T]
}

// NewCuckooFilter constructs a filter sized for capacity items with
// fingerprints of fingerprintSize bytes (typically 1-4).
func NewCuckooFilter[T any](capacity uint, fingerprintSize int) (*CuckooFilter[T], error) {
	if capacity == 0 {
		return nil, xerrors.ErrCapacityRequired
	}
	if fingerprintSize < 1 || fingerprintSize > 4 {
		return nil, xerrors.ErrInvalidFingerprintSize
	}

	n := (capacity + bucketSize - 1) / bucketSize
	if n == 0 {
		n = 1
	}
	if n&(n-1) != 0 {
		n = 1 << (64 - bits.LeadingZeros64(uint64(n-1)))
	}

	buckets := make([]fingerprintBucket, n)
	for i := range buckets {
		buckets[i] = newBucket()
	}

	slog.Info("CuckooFilter initialized", "capacity", capacity, "buckets", n, "fingerprint_size", fingerprintSize)

	return &CuckooFilter[T]{
		buckets:         buckets,
		size:            n,
		mask:            n - 1,
		fingerprintSize: fingerprintSize,
		pipeline:        decompose.NewPipeline[T](nil),
	}, nil
}

// Add decomposes value and inserts its fingerprint.
func (cf *CuckooFilter[T]) Add(value T) bool {
	return cf.AddBytes(cf.pipeline.Bytes(value))
}

// Contains decomposes value and tests membership.
func (cf *CuckooFilter[T]) Contains(value T) bool {
	return cf.ContainsBytes(cf.pipeline.Bytes(value))
}

// Delete decomposes value and removes it.
func (cf *CuckooFilter[T]) Delete(value T) bool {
	return cf.DeleteBytes(cf.pipeline.Bytes(value))
}

// AddBytes runs the insert state machine: TryPrimary -> TrySecondary ->
// Kicking(k) -> Success | Full.
func (cf *CuckooFilter[T]) AddBytes(data []byte) bool {
	ok, _ := cf.addBytesWithKicks(data)
	return ok
}

// AddWithKicks behaves like Add but also reports how many eviction kicks
// the insert required (0 if it landed in a candidate bucket directly),
// so callers can feed a kicks-total metric.
func (cf *CuckooFilter[T]) AddWithKicks(value T) (inserted bool, kicks int) {
	return cf.addBytesWithKicks(cf.pipeline.Bytes(value))
}

func (cf *CuckooFilter[T]) addBytesWithKicks(data []byte) (inserted bool, kicks int) {
	i1, i2, fp := cf.getHashes(data)

	cf.mu.Lock()
	defer cf.mu.Unlock()

	if cf.buckets[i1].insert(fp) || cf.buckets[i2].insert(fp) {
		cf.count++
		return true, 0
	}

	currIdx := i1
	var b [1]byte
	_, _ = rand.Read(b[:])
	if b[0]%2 == 0 {
		currIdx = i2
	}

	for k := 0; k < maxKicks; k++ {
		fp = cf.buckets[currIdx].swap(fp)
		currIdx = cf.alt(fp, currIdx)

		if cf.buckets[currIdx].insert(fp) {
			cf.count++
			return true, k + 1
		}
	}

	slog.Warn("CuckooFilter is full, insertion failed", "count", cf.count, "buckets", cf.size)
	return false, maxKicks
}

// ContainsBytes is unsynchronized with respect to Add/Delete, per the
// concurrency model: it may miss an in-flight kick chain's intermediate
// state, a permitted torn-read outcome.
func (cf *CuckooFilter[T]) ContainsBytes(data []byte) bool {
	i1, i2, fp := cf.getHashes(data)
	return cf.buckets[i1].contains(fp) || cf.buckets[i2].contains(fp)
}

// DeleteBytes removes data's fingerprint from whichever candidate bucket
// holds it.
func (cf *CuckooFilter[T]) DeleteBytes(data []byte) bool {
	i1, i2, fp := cf.getHashes(data)

	cf.mu.Lock()
	defer cf.mu.Unlock()

	if cf.buckets[i1].delete(fp) || cf.buckets[i2].delete(fp) {
		cf.count--
		return true
	}
	return false
}

// Count returns the current item count.
func (cf *CuckooFilter[T]) Count() uint {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	return cf.count
}

// Capacity returns the total number of fingerprint slots (buckets *
// bucketSize), for computing an external load-factor metric.
func (cf *CuckooFilter[T]) Capacity() uint {
	return cf.size * bucketSize
}

func (cf *CuckooFilter[T]) getHashes(data []byte) (i1, i2 uint, fp []byte) {
	i1 = uint(cf.hash.Sum64(data)) & cf.mask
	fp = cf.fingerprint(data)
	i2 = cf.alt(fp, i1)
	return i1, i2, fp
}

// fingerprint derives a fingerprintSize-byte, never-all-zero fingerprint
// from data's byte-output hash.
func (cf *CuckooFilter[T]) fingerprint(data []byte) []byte {
	fp := cf.hash.Bytes(data, cf.fingerprintSize)
	if allZero(fp) {
		fp[len(fp)-1] = 1
	}
	return fp
}

// alt computes the involutive alternate index: alt(alt(fp, i)) == i.
func (cf *CuckooFilter[T]) alt(fp []byte, i uint) uint {
	return (i ^ cf.hashOfFingerprint(fp)) & cf.mask
}

func (cf *CuckooFilter[T]) hashOfFingerprint(fp []byte) uint {
	padded := make([]byte, 4)
	copy(padded[4-len(fp):], fp)
	return uint(binary.BigEndian.Uint32(padded))
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
