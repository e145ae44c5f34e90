package insight

import "slices"

// DefaultHistorySize is how many recent phrasings are remembered per user.
const DefaultHistorySize = 10

// History is a bounded FIFO set of recently shown phrasing keys.
// A nil *History remembers nothing.
type History struct {
	capacity int
	keys     []string
}

// NewHistory restores a history, keeping only the newest capacity keys.
func NewHistory(capacity int, keys ...string) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	h := &History{capacity: capacity}
	for _, k := range keys {
		h.Push(k)
	}
	return h
}

// Contains reports whether key was shown recently.
func (h *History) Contains(key string) bool {
	if h == nil {
		return false
	}
	return slices.Contains(h.keys, key)
}

// Push records key as most recent, evicting the oldest entry when full.
func (h *History) Push(key string) {
	if h == nil || key == "" {
		return
	}
	if i := slices.Index(h.keys, key); i >= 0 {
		h.keys = slices.Delete(h.keys, i, i+1)
	}
	h.keys = append(h.keys, key)
	if len(h.keys) > h.capacity {
		h.keys = h.keys[len(h.keys)-h.capacity:]
	}
}

// Keys returns the remembered keys, oldest first.
func (h *History) Keys() []string {
	if h == nil {
		return nil
	}
	return slices.Clone(h.keys)
}

// Rand is the random source phrasing selection consumes.
// *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// pick chooses an index in [0,n) uniformly among keys not in seen,
// or among all n when every key was seen.
func pick(n int, key func(int) string, r Rand, seen *History) int {
	fresh := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if !seen.Contains(key(i)) {
			fresh = append(fresh, i)
		}
	}
	if len(fresh) == 0 {
		return r.Intn(n)
	}
	return fresh[r.Intn(len(fresh))]
}
