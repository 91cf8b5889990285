package queue

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertBounded(t *testing.T) {
	q := New(Lru, 5)
	for i := 0; i < 20; i++ {
		q.Insert(Item{Obj: fmt.Sprintf("obj-%d", i)})
		assert.LessOrEqual(t, q.Len(), 5)
	}
	assert.Equal(t, 5, q.Len())

	// the survivors are the most recent five, oldest first
	for i := 15; i < 20; i++ {
		item, ok := q.Take()
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("obj-%d", i), item.Obj)
	}
}

func TestTakeEmpty(t *testing.T) {
	q := New(Mru, 10)
	_, ok := q.Take()
	assert.False(t, ok)
}

func TestTakeLru(t *testing.T) {
	q := New(Lru, 10)
	q.Insert(Item{Obj: "a"})
	q.Insert(Item{Obj: "b"})
	q.Insert(Item{Obj: "c"})

	item, ok := q.Take()
	require.True(t, ok)
	assert.Equal(t, "a", item.Obj)
	assert.Equal(t, 2, q.Len())
}

func TestTakeMru(t *testing.T) {
	q := New(Mru, 10)
	q.Insert(Item{Obj: "a"})
	q.Insert(Item{Obj: "b"})
	q.Insert(Item{Obj: "c"})

	item, ok := q.Take()
	require.True(t, ok)
	assert.Equal(t, "c", item.Obj)

	item, ok = q.Take()
	require.True(t, ok)
	assert.Equal(t, "b", item.Obj)
}

func TestTakeRand(t *testing.T) {
	// every entry must be reachable; with 200 trials over 5 entries a
	// never-selected entry is vanishingly unlikely
	hits := make(map[string]int)
	for trial := 0; trial < 200; trial++ {
		q := New(Rand, 10)
		for _, obj := range []string{"a", "b", "c", "d", "e"} {
			q.Insert(Item{Obj: obj})
		}
		item, ok := q.Take()
		require.True(t, ok)
		hits[item.Obj]++
	}
	for _, obj := range []string{"a", "b", "c", "d", "e"} {
		assert.Greater(t, hits[obj], 0, "entry %q never selected", obj)
	}
}

func TestCapacityClamp(t *testing.T) {
	q := New(Lru, 0)
	q.Insert(Item{Obj: "a"})
	q.Insert(Item{Obj: "b"})
	assert.Equal(t, 1, q.Len())

	item, ok := q.Take()
	require.True(t, ok)
	assert.Equal(t, "b", item.Obj)
}

func TestParseMode(t *testing.T) {
	for s, want := range map[string]Mode{"lru": Lru, "mru": Mru, "rand": Rand} {
		m, ok := ParseMode(s)
		require.True(t, ok)
		assert.Equal(t, want, m)
		assert.Equal(t, s, m.String())
	}
	_, ok := ParseMode("fifo")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	q := New(Rand, 100)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				q.Insert(Item{Obj: fmt.Sprintf("%d-%d", g, i)})
				if i%3 == 0 {
					q.Take()
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, q.Len(), 100)
}
