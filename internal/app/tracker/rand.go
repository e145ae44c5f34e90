package tracker

import (
	"math/rand"
	"sync"
	"time"
)

// Rand is the random source shared by the reward draw and phrasing picks.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// lockedRand makes a *rand.Rand safe for concurrent users.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe source. A zero seed seeds from the clock.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}
