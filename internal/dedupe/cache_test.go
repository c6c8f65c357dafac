// ABOUTME: Tests for the activity dedupe cache
// ABOUTME: Validates duplicate detection, TTL expiry, size eviction, and the empty-ID exemption

package dedupe

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeen_FirstTimeIsNotDuplicate(t *testing.T) {
	c := New(5*time.Minute, 100)

	assert.False(t, c.Seen("act-1"))
	assert.True(t, c.Seen("act-1"))
	assert.True(t, c.Seen("act-1"))
}

func TestSeen_DistinctIDs(t *testing.T) {
	c := New(5*time.Minute, 100)

	assert.False(t, c.Seen("act-1"))
	assert.False(t, c.Seen("act-2"))
	assert.True(t, c.Seen("act-1"))
}

func TestSeen_EmptyIDNeverDeduplicated(t *testing.T) {
	c := New(5*time.Minute, 100)

	assert.False(t, c.Seen(""))
	assert.False(t, c.Seen(""))
	assert.Zero(t, c.Len())
}

func TestSeen_ExpiredEntryIsNotDuplicate(t *testing.T) {
	c := New(50*time.Millisecond, 100)

	now := time.Now()
	c.now = func() time.Time { return now }

	assert.False(t, c.Seen("act-1"))

	now = now.Add(100 * time.Millisecond)
	assert.False(t, c.Seen("act-1"), "expired entry counts as new")
}

func TestSeen_EvictsOldestAtCapacity(t *testing.T) {
	c := New(5*time.Minute, 3)

	c.Seen("a")
	c.Seen("b")
	c.Seen("c")
	c.Seen("d") // evicts "a"

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Seen("a"), "oldest entry was evicted")
	assert.True(t, c.Seen("d"))
}

func TestSeen_LazyReap(t *testing.T) {
	c := New(50*time.Millisecond, 100)

	now := time.Now()
	c.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		c.Seen(fmt.Sprintf("act-%d", i))
	}
	assert.Equal(t, 10, c.Len())

	now = now.Add(time.Minute)
	c.Seen("fresh")

	// All expired entries were reaped on insert.
	assert.Equal(t, 1, c.Len())
}

func TestSeen_Concurrent(t *testing.T) {
	c := New(5*time.Minute, 1000)

	var wg sync.WaitGroup
	duplicates := make([]int, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				if c.Seen(fmt.Sprintf("act-%d", i)) {
					duplicates[g]++
				}
			}
		}(g)
	}
	wg.Wait()

	// Each of the 100 IDs is new exactly once across all goroutines.
	total := 0
	for _, d := range duplicates {
		total += d
	}
	assert.Equal(t, 8*100-100, total)
}
