package bitset

import (
	"sync"
	"testing"
)

func TestSetBitTransition(t *testing.T) {
	b := New(128)
	if b.GetBit(5) {
		t.Fatal("expected bit 5 unset initially")
	}
	if !b.SetBit(5) {
		t.Fatal("expected first SetBit(5) to report a transition")
	}
	if b.SetBit(5) {
		t.Fatal("expected second SetBit(5) to report no transition")
	}
	if !b.GetBit(5) {
		t.Fatal("expected bit 5 set after SetBit")
	}
}

func TestSetBitDoesNotDisturbNeighbors(t *testing.T) {
	b := New(128)
	b.SetBit(63)
	if b.GetBit(64) || b.GetBit(62) {
		t.Fatal("SetBit(63) disturbed an adjacent bit across a word boundary")
	}
}

func TestSetBitConcurrentSingleWinner(t *testing.T) {
	b := New(64)
	const workers = 32
	var wg sync.WaitGroup
	wins := make([]bool, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(idx int) {
			defer wg.Done()
			wins[idx] = b.SetBit(10)
		}(i)
	}
	wg.Wait()

	count := 0
	for _, w := range wins {
		if w {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one goroutine to observe the 0->1 transition, got %d", count)
	}
}
