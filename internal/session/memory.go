package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements PendingStore and ConversationLog with mutex-guarded
// maps keyed by user id.
type MemoryStore struct {
	mu      sync.Mutex
	pending map[int64]PendingAction
	logs    map[int64][]Entry
	now     func() time.Time
}

var (
	_ PendingStore    = (*MemoryStore)(nil)
	_ ConversationLog = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pending: make(map[int64]PendingAction),
		logs:    make(map[int64][]Entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) GetPending(userID int64) (PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[userID]
	if !ok {
		return PendingAction{}, false
	}
	return p.Clone(), true
}

func (s *MemoryStore) PutPending(userID int64, p PendingAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[userID] = p.Clone()
}

func (s *MemoryStore) DeletePending(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
}

func (s *MemoryStore) Append(userID int64, role Role, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.logs[userID]
	if n := len(entries); n > 0 && entries[n-1].Role == role && entries[n-1].Text == text {
		return false
	}
	s.logs[userID] = append(entries, Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: s.now(),
	})
	return true
}

func (s *MemoryStore) History(userID int64) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.logs[userID]
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, userID)
}

// Reset drops both the pending action and the history of a user.
func (s *MemoryStore) Reset(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, userID)
	delete(s.logs, userID)
}
