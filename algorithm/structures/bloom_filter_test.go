package structures

import (
	"fmt"
	"math"
	"testing"
)

func TestBloomFilterNoFalseNegatives(t *testing.T) {
	bf, err := NewBloomFilter[string](1000, 0.01)
	if err != nil {
		t.Fatalf("NewBloomFilter: %v", err)
	}

	inserted := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		item := fmt.Sprintf("item-%d", i)
		bf.Add(item)
		inserted = append(inserted, item)
	}

	for _, item := range inserted {
		if !bf.Contains(item) {
			t.Fatalf("false negative for %q", item)
		}
	}
}

func TestBloomFilterSizingMatchesSpecExample(t *testing.T) {
	n := uint(1000000)
	p := 0.01

	m := math.Floor(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m != 9585058 && m != 9585059 {
		t.Fatalf("m = %v, expected approximately 9585058", m)
	}

	k := int(math.Round((m / float64(n)) * math.Ln2))
	if k != 6 && k != 7 {
		t.Fatalf("k = %d, expected 6 or 7", k)
	}
}

func TestBloomFilterRejectsInvalidProbability(t *testing.T) {
	if _, err := NewBloomFilter[string](100, 0); err == nil {
		t.Fatal("expected error for p=0")
	}
	if _, err := NewBloomFilter[string](100, 1); err == nil {
		t.Fatal("expected error for p=1")
	}
	if _, err := NewBloomFilter[string](0, 0.01); err == nil {
		t.Fatal("expected error for zero expected elements")
	}
}

func TestBloomFilterEmpiricalFalsePositiveRateBound(t *testing.T) {
	n := uint(10000)
	p := 0.01
	bf, err := NewBloomFilter[string](n, p)
	if err != nil {
		t.Fatalf("NewBloomFilter: %v", err)
	}

	for i := 0; i < int(n); i++ {
		bf.Add(fmt.Sprintf("present-%d", i))
	}

	falsePositives := 0
	trials := 20000
	for i := 0; i < trials; i++ {
		if bf.Contains(fmt.Sprintf("absent-%d", i)) {
			falsePositives++
		}
	}

	rate := float64(falsePositives) / float64(trials)
	// Generous bound: empirical rate should stay within an order of
	// magnitude of the configured 1% target.
	if rate > 0.05 {
		t.Fatalf("empirical false positive rate %v exceeds tolerance", rate)
	}
}

func TestBloomFilterAddBytesNilPanics(t *testing.T) {
	bf, err := NewBloomFilter[string](100, 0.01)
	if err != nil {
		t.Fatalf("NewBloomFilter: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil input")
		}
	}()
	bf.AddBytes(nil)
}
