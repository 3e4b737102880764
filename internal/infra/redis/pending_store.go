package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-session-engine/internal/domain"
)

// pendingKey holds one hash of staged results, one field per quiz id. The name
// matches the browser-era persisted key so existing dashboards keep working.
const pendingKey = "pendingQuizResults"

// PendingStore stages unsynced results in a Redis hash. Writes are last-write-
// wins per quiz id, which is enough because a quiz id is only actively written
// by the single client that owns the session.
type PendingStore struct {
	client *redis.Client
}

func NewPendingStore(client *redis.Client) *PendingStore {
	return &PendingStore{client: client}
}

func (s *PendingStore) Stage(ctx context.Context, entry domain.PendingResultEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal pending entry: %w", err)
	}
	if err := s.client.HSet(ctx, pendingKey, entry.QuizID, raw).Err(); err != nil {
		return fmt.Errorf("stage pending entry: %w", err)
	}
	return nil
}

func (s *PendingStore) Get(ctx context.Context, quizID string) (domain.PendingResultEntry, bool, error) {
	raw, err := s.client.HGet(ctx, pendingKey, quizID).Bytes()
	if err == redis.Nil {
		return domain.PendingResultEntry{}, false, nil
	}
	if err != nil {
		return domain.PendingResultEntry{}, false, fmt.Errorf("get pending entry: %w", err)
	}
	var entry domain.PendingResultEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.PendingResultEntry{}, false, fmt.Errorf("unmarshal pending entry: %w", err)
	}
	return entry, true, nil
}

func (s *PendingStore) Clear(ctx context.Context, quizID string) error {
	if err := s.client.HDel(ctx, pendingKey, quizID).Err(); err != nil {
		return fmt.Errorf("clear pending entry: %w", err)
	}
	return nil
}

func (s *PendingStore) List(ctx context.Context) ([]domain.PendingResultEntry, error) {
	fields, err := s.client.HGetAll(ctx, pendingKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}
	entries := make([]domain.PendingResultEntry, 0, len(fields))
	for quizID, raw := range fields {
		var entry domain.PendingResultEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal pending entry %q: %w", quizID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
