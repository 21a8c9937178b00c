package structures

import (
	"fmt"
	"testing"
)

func TestCuckooFilterKickSurvival(t *testing.T) {
	cf, err := NewCuckooFilter[string](1024, 2)
	if err != nil {
		t.Fatalf("NewCuckooFilter: %v", err)
	}

	items := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		items = append(items, fmt.Sprintf("item%04d", i))
	}

	for _, item := range items {
		if !cf.Add(item) {
			t.Fatalf("insert failed for %q before capacity exhausted", item)
		}
	}

	for _, item := range items {
		if !cf.Contains(item) {
			t.Fatalf("lost membership for %q after kick chain", item)
		}
	}
}

func TestCuckooFilterDeleteSymmetry(t *testing.T) {
	cf, err := NewCuckooFilter[string](256, 1)
	if err != nil {
		t.Fatalf("NewCuckooFilter: %v", err)
	}

	if !cf.Add("alpha") {
		t.Fatal("insert failed")
	}
	if !cf.Contains("alpha") {
		t.Fatal("expected membership before delete")
	}
	if !cf.Delete("alpha") {
		t.Fatal("expected delete to report success")
	}
	if cf.Contains("alpha") {
		t.Fatal("expected no membership after delete")
	}
	if cf.Delete("alpha") {
		t.Fatal("expected second delete to report absence")
	}
}

func TestCuckooFilterAlternateIndexIsInvolution(t *testing.T) {
	cf, err := NewCuckooFilter[string](64, 2)
	if err != nil {
		t.Fatalf("NewCuckooFilter: %v", err)
	}

	fp := cf.fingerprint([]byte("probe"))
	i1 := uint(3) & cf.mask
	i2 := cf.alt(fp, i1)
	back := cf.alt(fp, i2)
	if back != i1 {
		t.Fatalf("alt(alt(fp, i)) = %d, want %d", back, i1)
	}
}

func TestCuckooFilterRejectsInvalidFingerprintSize(t *testing.T) {
	if _, err := NewCuckooFilter[string](64, 0); err == nil {
		t.Fatal("expected error for fingerprint size 0")
	}
	if _, err := NewCuckooFilter[string](64, 5); err == nil {
		t.Fatal("expected error for fingerprint size 5")
	}
	if _, err := NewCuckooFilter[string](0, 2); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestCuckooFilterCapacityReflectsBucketLayout(t *testing.T) {
	cf, err := NewCuckooFilter[string](1024, 2)
	if err != nil {
		t.Fatalf("NewCuckooFilter: %v", err)
	}
	if cf.Capacity() < 1024 {
		t.Fatalf("Capacity() = %d, want at least 1024", cf.Capacity())
	}
}

func TestCuckooFilterAddWithKicksReportsKickCount(t *testing.T) {
	cf, err := NewCuckooFilter[string](1024, 2)
	if err != nil {
		t.Fatalf("NewCuckooFilter: %v", err)
	}

	ok, kicks := cf.AddWithKicks("first")
	if !ok {
		t.Fatal("expected first insert to succeed")
	}
	if kicks != 0 {
		t.Fatalf("expected a direct-bucket insert to report 0 kicks, got %d", kicks)
	}

	total := 0
	for i := 0; i < 64; i++ {
		item := fmt.Sprintf("kick%04d", i)
		ok, kicks := cf.AddWithKicks(item)
		if !ok {
			t.Fatalf("insert failed for %q before capacity exhausted", item)
		}
		if kicks < 0 {
			t.Fatalf("kicks must never be negative, got %d", kicks)
		}
		total += kicks
	}

	if !cf.Contains("first") {
		t.Fatal("lost membership for the first insert after subsequent kick chains")
	}
}
