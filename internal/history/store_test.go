// ABOUTME: Tests for the bounded conversation history store
// ABOUTME: Validates FIFO truncation, isolation between conversations, and concurrency safety

package history

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_History_UnknownConversation(t *testing.T) {
	s := NewStore()

	assert.Empty(t, s.History("never-seen"))
	assert.Zero(t, s.Len("never-seen"))
}

func TestStore_Append_PreservesOrder(t *testing.T) {
	s := NewStore()

	s.Append("c1", RoleUser, "first")
	s.Append("c1", RoleAssistant, "second")
	s.Append("c1", RoleUser, "third")

	turns := s.History("c1")
	require.Len(t, turns, 3)
	assert.Equal(t, Turn{Role: RoleUser, Content: "first"}, turns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "second"}, turns[1])
	assert.Equal(t, Turn{Role: RoleUser, Content: "third"}, turns[2])
}

func TestStore_Append_TruncatesFIFO(t *testing.T) {
	s := NewStore()

	// Append more than the bound; after every append the length must stay
	// within MaxTurns.
	for i := 0; i < 25; i++ {
		s.Append("c1", RoleUser, fmt.Sprintf("msg-%d", i))
		assert.LessOrEqual(t, s.Len("c1"), MaxTurns)
	}

	turns := s.History("c1")
	require.Len(t, turns, MaxTurns)

	// Retained entries are exactly the most recent ones, in original order.
	for i, turn := range turns {
		assert.Equal(t, fmt.Sprintf("msg-%d", 25-MaxTurns+i), turn.Content)
	}
}

func TestStore_AppendExchange(t *testing.T) {
	s := NewStore()

	s.AppendExchange("c1", "hello", "hi there")

	turns := s.History("c1")
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Role: RoleUser, Content: "hello"}, turns[0])
	assert.Equal(t, Turn{Role: RoleAssistant, Content: "hi there"}, turns[1])
}

func TestStore_AppendExchange_Truncates(t *testing.T) {
	s := NewStore()

	for i := 0; i < 8; i++ {
		s.AppendExchange("c1", fmt.Sprintf("q-%d", i), fmt.Sprintf("a-%d", i))
	}

	turns := s.History("c1")
	require.Len(t, turns, MaxTurns)
	assert.Equal(t, "q-3", turns[0].Content)
	assert.Equal(t, "a-7", turns[len(turns)-1].Content)
}

func TestStore_ConversationsAreIsolated(t *testing.T) {
	s := NewStore()

	s.Append("c1", RoleUser, "for c1")
	s.Append("c2", RoleUser, "for c2")

	require.Len(t, s.History("c1"), 1)
	require.Len(t, s.History("c2"), 1)
	assert.Equal(t, "for c1", s.History("c1")[0].Content)
	assert.Equal(t, "for c2", s.History("c2")[0].Content)
}

func TestStore_HistoryReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Append("c1", RoleUser, "original")

	turns := s.History("c1")
	turns[0].Content = "mutated"

	assert.Equal(t, "original", s.History("c1")[0].Content)
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			id := fmt.Sprintf("conv-%d", g%4)
			for i := 0; i < 50; i++ {
				s.Append(id, RoleUser, "m")
			}
		}(g)
	}
	wg.Wait()

	for g := 0; g < 4; g++ {
		assert.Equal(t, MaxTurns, s.Len(fmt.Sprintf("conv-%d", g)))
	}
}
