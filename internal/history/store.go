// ABOUTME: In-memory bounded conversation history keyed by conversation ID
// ABOUTME: Append-only with FIFO truncation; per-conversation serialization

package history

import (
	"sync"
)

// MaxTurns is the per-conversation history bound: 5 user/assistant exchanges.
// Appending beyond the bound evicts the oldest turns first.
const MaxTurns = 10

// Roles for conversation turns, matching the chat-completion wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in a conversation. Immutable once created.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// conversation holds one conversation's turns plus its own lock, so appends
// to the same conversation serialize while distinct conversations proceed in
// parallel.
type conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// Store maps conversation IDs to bounded turn sequences. History lives for
// the process lifetime only; there is no persistence and no explicit delete.
type Store struct {
	mu            sync.RWMutex
	conversations map[string]*conversation
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*conversation),
	}
}

// History returns a copy of the turns recorded for the conversation, oldest
// first. Unknown conversation IDs yield an empty slice, never an error.
func (s *Store) History(conversationID string) []Turn {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	out := make([]Turn, len(conv.turns))
	copy(out, conv.turns)
	return out
}

// Append records a turn for the conversation, creating the entry if absent.
// When the bound is exceeded the oldest turns are dropped until exactly
// MaxTurns remain.
func (s *Store) Append(conversationID, role, content string) {
	conv := s.ensure(conversationID)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.turns = append(conv.turns, Turn{Role: role, Content: content})
	if n := len(conv.turns); n > MaxTurns {
		conv.turns = append(conv.turns[:0], conv.turns[n-MaxTurns:]...)
	}
}

// AppendExchange records a user turn followed by its assistant reply as one
// serialized operation, so a concurrent append cannot interleave between the
// two halves of an exchange.
func (s *Store) AppendExchange(conversationID, userMessage, reply string) {
	conv := s.ensure(conversationID)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.turns = append(conv.turns,
		Turn{Role: RoleUser, Content: userMessage},
		Turn{Role: RoleAssistant, Content: reply},
	)
	if n := len(conv.turns); n > MaxTurns {
		conv.turns = append(conv.turns[:0], conv.turns[n-MaxTurns:]...)
	}
}

// Len reports the number of turns currently held for the conversation.
func (s *Store) Len(conversationID string) int {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if !ok {
		return 0
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	return len(conv.turns)
}

// ensure returns the conversation entry, creating it under the write lock if
// needed.
func (s *Store) ensure(conversationID string) *conversation {
	s.mu.RLock()
	conv, ok := s.conversations[conversationID]
	s.mu.RUnlock()
	if ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok = s.conversations[conversationID]; ok {
		return conv
	}
	conv = &conversation{}
	s.conversations[conversationID] = conv
	return conv
}
