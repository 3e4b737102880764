package memory

import (
	"context"
	"testing"
	"time"

	"quiz-session-engine/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		BankLoader: NewStaticBankLoader(map[string]domain.QuestionBank{
			"angular": sampleBank(),
		}),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.GetBank(context.Background(), "angular"); err != nil {
		t.Fatalf("get bank: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetBank(context.Background(), "angular"); err != nil {
		t.Fatalf("get bank 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}

	if _, err := repo.GetBank(context.Background(), "react"); err != domain.ErrBankNotFound {
		t.Fatalf("expected ErrBankNotFound, got %v", err)
	}
}

type countingLoader struct {
	BankLoader
	calls int
}

func (l *countingLoader) LoadBank(ctx context.Context, topicKey string) (domain.QuestionBank, error) {
	l.calls++
	return l.BankLoader.LoadBank(ctx, topicKey)
}

func sampleBank() domain.QuestionBank {
	return domain.QuestionBank{
		ID:       "angular-basics",
		TopicKey: "angular",
		Questions: []domain.Question{
			{
				ID:               "q1",
				Prompt:           "What is a directive?",
				Options:          map[string]string{"a": "a class", "b": "a template marker"},
				CorrectOptionKey: "b",
			},
		},
	}
}
