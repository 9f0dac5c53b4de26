// Package lock provides striped mutexes for serializing
// read-modify-write sequences on a single entity (one channel's
// membership and tally, one job's status) without a global lock.
// Keys map to a fixed set of stripes via an fnv hash, the same scheme
// the mail dispatcher uses to shard work by key.
package lock

import (
	"hash/fnv"
	"sync"
)

const defaultStripes = 64

// Striped is a fixed pool of mutexes indexed by key hash. Two
// operations on the same key always contend on the same mutex;
// operations on different keys almost always proceed independently.
type Striped struct {
	stripes []sync.Mutex
}

// NewStriped returns a Striped lock with n stripes. If n <= 0,
// defaultStripes is used.
func NewStriped(n int) *Striped {
	if n <= 0 {
		n = defaultStripes
	}
	return &Striped{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the stripe for key.
func (s *Striped) Lock(key string) {
	s.stripes[s.index(key)].Lock()
}

// Unlock releases the stripe for key.
func (s *Striped) Unlock(key string) {
	s.stripes[s.index(key)].Unlock()
}

func (s *Striped) index(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32()) % len(s.stripes)
}
