package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-session-engine/internal/domain"
)

// PendingStore is an in-memory pending-result store. It does not survive a
// restart; production deployments use the sqlite or redis implementation.
type PendingStore struct {
	mu      sync.RWMutex
	entries map[string]domain.PendingResultEntry
}

func NewPendingStore() *PendingStore {
	return &PendingStore{entries: make(map[string]domain.PendingResultEntry)}
}

// Stage overwrites any existing entry for the same quiz id (last write wins).
func (s *PendingStore) Stage(_ context.Context, entry domain.PendingResultEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.QuizID] = entry
	return nil
}

func (s *PendingStore) Get(_ context.Context, quizID string) (domain.PendingResultEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[quizID]
	return entry, ok, nil
}

func (s *PendingStore) Clear(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, quizID)
	return nil
}

func (s *PendingStore) List(_ context.Context) ([]domain.PendingResultEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.PendingResultEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].QuizID < entries[j].QuizID })
	return entries, nil
}
