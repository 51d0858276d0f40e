package navigation

import "sync"

// chatState holds one chat's live screen. turn serializes transitions for
// the chat; mu guards live.
type chatState struct {
	turn sync.Mutex
	mu   sync.Mutex
	live []MessageRef
}

// Store tracks the live messages of every chat. Entries are created on first
// use and kept for the life of the process. Chats never share a lock.
type Store struct {
	chats sync.Map // ChatID -> *chatState
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) chat(id ChatID) *chatState {
	if v, ok := s.chats.Load(id); ok {
		return v.(*chatState)
	}
	v, _ := s.chats.LoadOrStore(id, &chatState{})
	return v.(*chatState)
}

// Get returns a copy of the chat's live messages. Unknown chats have none.
func (s *Store) Get(id ChatID) []MessageRef {
	v, ok := s.chats.Load(id)
	if !ok {
		return []MessageRef{}
	}
	c := v.(*chatState)
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MessageRef, len(c.live))
	copy(out, c.live)
	return out
}

// Replace sets the chat's live messages to refs.
func (s *Store) Replace(id ChatID, refs []MessageRef) {
	c := s.chat(id)
	live := make([]MessageRef, len(refs))
	copy(live, refs)
	c.mu.Lock()
	c.live = live
	c.mu.Unlock()
}

// Chats returns how many chats have been seen.
func (s *Store) Chats() int {
	n := 0
	s.chats.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// acquire blocks until the caller owns the chat's transition slot.
func (s *Store) acquire(id ChatID) (release func()) {
	c := s.chat(id)
	c.turn.Lock()
	return c.turn.Unlock
}
