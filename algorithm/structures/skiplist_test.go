package structures

import (
	"fmt"
	"math/rand"
	"reflect"
	"sync"
	"testing"
)

func TestSkipListSingleThreadScenario(t *testing.T) {
	sl := NewSkipList[string, string](1000)

	if !sl.Insert("m", "m") {
		t.Fatal("expected first insert of m to succeed")
	}
	if !sl.Insert("a", "a") {
		t.Fatal("expected insert of a to succeed")
	}
	if !sl.Insert("z", "z") {
		t.Fatal("expected insert of z to succeed")
	}
	if sl.Insert("m", "m") {
		t.Fatal("expected duplicate insert of m to report false")
	}

	got := sl.Range("b", "y")
	if !reflect.DeepEqual(got, []string{"m"}) {
		t.Fatalf("Range(b, y) = %v, want [m]", got)
	}

	if !sl.Remove("m") {
		t.Fatal("expected remove of m to succeed")
	}
	if sl.Contains("m") {
		t.Fatal("expected m absent after remove")
	}

	got = sl.Range("a", "z")
	if !reflect.DeepEqual(got, []string{"a", "z"}) {
		t.Fatalf("Range(a, z) = %v, want [a z]", got)
	}
}

func TestSkipListOrderingInvariant(t *testing.T) {
	sl := NewSkipList[int, int](1000)
	for i := 0; i < 500; i++ {
		sl.Insert(rand.Intn(2000), i)
	}

	it := sl.Iterator()
	prev, first := 0, true
	count := 0
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		if !first && k <= prev {
			t.Fatalf("ordering violated: %d did not increase past %d", k, prev)
		}
		prev, first = k, false
		count++
	}
	if count != sl.Size() {
		t.Fatalf("iterator produced %d keys, Size() = %d", count, sl.Size())
	}
}

func TestSkipListRoundTrip(t *testing.T) {
	sl := NewSkipList[string, int](100)
	sl.Insert("k", 1)
	sl.Remove("k")
	if sl.Contains("k") {
		t.Fatal("expected key absent after add-then-remove")
	}
}

func TestSkipListConcurrentStress(t *testing.T) {
	const (
		goroutines = 8
		opsEach    = 10000
		keySpace   = 1000
	)

	sl := NewSkipList[string, int](keySpace * 2)
	keys := make([]string, keySpace)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%04d", i)
	}

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < opsEach; i++ {
				key := keys[r.Intn(keySpace)]
				p := r.Float64()
				switch {
				case p < 0.5:
					sl.Insert(key, i)
				case p < 0.75:
					sl.Remove(key)
				default:
					sl.Search(key)
				}
			}
		}(int64(g) + 1)
	}
	wg.Wait()

	it := sl.Iterator()
	prev, first := "", true
	count := 0
	for {
		k, _, ok := it.Next()
		if !ok {
			break
		}
		if !first && k <= prev {
			t.Fatalf("ordering violated after stress: %q did not increase past %q", k, prev)
		}
		prev, first = k, false
		count++
	}
	if count != sl.Size() {
		t.Fatalf("post-stress iterator produced %d keys, Size() = %d", count, sl.Size())
	}

	for _, key := range keys {
		present := sl.Contains(key)
		_, searchOk := sl.Search(key)
		if present != searchOk {
			t.Fatalf("Contains/Search disagree for %q: %v vs %v", key, present, searchOk)
		}
	}
}
