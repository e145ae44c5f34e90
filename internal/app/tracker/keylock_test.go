package tracker

import (
	"sync"
	"testing"
)

func TestKeyLock_SerializesPerKey(t *testing.T) {
	k := newKeyLock()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("u1")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Errorf("counter = %d, want 50", counter)
	}
	if k.size() != 0 {
		t.Errorf("idle entries = %d, want 0", k.size())
	}
}

func TestKeyLock_IndependentKeys(t *testing.T) {
	k := newKeyLock()
	unlockA := k.Lock("a")
	unlockB := k.Lock("b") // must not block
	if k.size() != 2 {
		t.Errorf("entries = %d, want 2", k.size())
	}
	unlockA()
	unlockB()
}

func TestNewRand_Deterministic(t *testing.T) {
	a, b := NewRand(9), NewRand(9)
	for i := 0; i < 10; i++ {
		if a.Float64() != b.Float64() {
			t.Fatal("same seed diverged")
		}
	}
}
