// Package queue tracks object identifiers known to exist on the target, so
// read and delete operations can aim at real data.
//
// The queue is bounded: inserting past capacity evicts the oldest entry no
// matter which selection mode is configured. The mode only governs which
// entry a Take returns. It is the one structure deliberately shared between
// all workers and is guarded by a single mutex with one-operation critical
// sections.
package queue

import (
	"math/rand"
	"sync"
	"time"
)

// Mode selects which tracked object a Take returns.
type Mode uint8

const (
	Lru  Mode = iota // oldest surviving entry
	Mru              // most recently inserted entry
	Rand             // uniformly random surviving entry
)

func (m Mode) String() string {
	switch m {
	case Lru:
		return "lru"
	case Mru:
		return "mru"
	case Rand:
		return "rand"
	}
	return "unknown"
}

// ParseMode parses the CLI mode name.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "lru":
		return Lru, true
	case "mru":
		return Mru, true
	case "rand":
		return Rand, true
	}
	return Lru, false
}

// Item is the identifier of one object on the target. Identifiers are
// generated to be globally unique, but the queue does not enforce that;
// duplicate insertion is harmless.
type Item struct {
	Obj string
}

type Queue struct {
	mu    sync.Mutex
	items []Item
	mode  Mode
	cap   int
	rng   *rand.Rand
}

func New(mode Mode, capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		mode: mode,
		cap:  capacity,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Insert appends item, evicting the oldest entry if the queue is full.
func (q *Queue) Insert(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, item)
	if len(q.items) > q.cap {
		q.items = q.items[1:]
	}
}

// Take removes and returns an entry per the configured mode. The second
// return is false when the queue is empty; that is a legitimate no-op for
// the caller, never an error.
func (q *Queue) Take() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}

	var idx int
	switch q.mode {
	case Lru:
		idx = 0
	case Mru:
		idx = n - 1
	case Rand:
		idx = q.rng.Intn(n)
	}

	item := q.items[idx]
	q.items = append(q.items[:idx], q.items[idx+1:]...)
	return item, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Mode() Mode {
	return q.mode
}
