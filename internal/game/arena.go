package game

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// Soldier is a single unit. IDs are unique within a run so observers can
// follow individual soldiers between states.
type Soldier struct {
	ID uint64 `json:"id"`
}

// Arena holds the per-run services shared by every state: the soldier ID
// sequence and the random source used by live combat. It is safe for
// concurrent use.
type Arena struct {
	next atomic.Uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewArena creates an arena seeded for live combat.
func NewArena(seed int64) *Arena {
	return &Arena{rng: rand.New(rand.NewSource(seed))}
}

// NewSoldier mints a soldier with a fresh ID.
func (a *Arena) NewSoldier() Soldier {
	return Soldier{ID: a.next.Add(1)}
}

// NextID returns the last ID handed out.
func (a *Arena) NextID() uint64 {
	return a.next.Load()
}

// advance moves the sequence forward so it never reissues IDs up to id.
func (a *Arena) advance(id uint64) {
	for {
		cur := a.next.Load()
		if cur >= id || a.next.CompareAndSwap(cur, id) {
			return
		}
	}
}

// Float64 returns a uniform number in [0,1).
func (a *Arena) Float64() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64()
}
