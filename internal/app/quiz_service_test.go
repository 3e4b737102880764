package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/auth"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/infra/memory"
	"quiz-session-engine/internal/session"
)

type recordingSynchronizer struct {
	mu     sync.Mutex
	failOn map[string]bool
	synced []string
}

func (r *recordingSynchronizer) Sync(_ context.Context, result domain.QuizResult, credential string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if credential == "" {
		return domain.ErrNoCredential
	}
	if r.failOn[result.QuizID] {
		return domain.ErrSyncFailed
	}
	r.synced = append(r.synced, result.QuizID)
	return nil
}

func (r *recordingSynchronizer) syncedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.synced...)
}

func sampleBanks() map[string]domain.QuestionBank {
	question := func(id, correct string) domain.Question {
		return domain.Question{
			ID:               id,
			Prompt:           "pick " + correct,
			Options:          map[string]string{"a": "first", "b": "second"},
			CorrectOptionKey: correct,
		}
	}
	return map[string]domain.QuestionBank{
		"angular": {
			ID:        "angular-basics",
			TopicKey:  "angular",
			Questions: []domain.Question{question("q1", "a"), question("q2", "b")},
		},
		"react": {
			ID:        "react-hooks",
			TopicKey:  "react",
			Questions: []domain.Question{question("q1", "a")},
		},
	}
}

func newTestService(syncer app.Synchronizer, creds app.CredentialSource) (*app.QuizService, *memory.PendingStore) {
	pending := memory.NewPendingStore()
	banks := memory.NewQuestionRepository(memory.NewStaticBankLoader(sampleBanks()), 5*time.Minute)
	svc := app.NewQuizService(memory.NewSessionRegistry(), banks, pending, syncer, creds, app.Config{
		QuestionSeconds: 60,
		TickInterval:    10 * time.Millisecond,
	})
	return svc, pending
}

// runToCompletion answers every question and waits for the persistence outcome.
func runToCompletion(t *testing.T, ctrl *session.Controller) domain.QuizResult {
	t.Helper()
	events, cancel := ctrl.Subscribe()
	defer cancel()

	if err := ctrl.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	total := ctrl.Snapshot().TotalQuestions
	for i := 0; i < total; i++ {
		if err := ctrl.SelectOption("a"); err != nil {
			t.Fatalf("select: %v", err)
		}
		if err := ctrl.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	var result *domain.QuizResult
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed before persistence settled")
			}
			if ev.Type == session.EventCompleted {
				result = ev.Result
			}
			if ev.Type == session.EventAuthRequired || ev.Type == session.EventSynced || ev.Type == session.EventSyncFailed {
				if result == nil {
					t.Fatalf("persistence outcome before completion event")
				}
				return *result
			}
		case <-deadline:
			t.Fatalf("session never completed")
		}
	}
}

func TestStartSessionFetchErrorCreatesNoSession(t *testing.T) {
	svc, _ := newTestService(&recordingSynchronizer{}, auth.NewStaticTokenSource(""))

	if _, err := svc.StartSession(context.Background(), "no-such-topic"); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected ErrBankNotFound, got %v", err)
	}
}

func TestUnauthenticatedCompletionStagesThenLoginSyncs(t *testing.T) {
	ctx := context.Background()
	syncer := &recordingSynchronizer{}
	svc, pending := newTestService(syncer, auth.NewStaticTokenSource(""))

	ctrl, err := svc.StartSession(ctx, "angular")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer svc.EndSession(ctrl.ID())

	result := runToCompletion(t, ctrl)

	entry, ok, err := pending.Get(ctx, "angular-basics")
	if err != nil || !ok {
		t.Fatalf("expected staged entry, got ok=%v err=%v", ok, err)
	}
	if entry.Result.Score != result.Score || entry.Result.AttemptNumber != result.AttemptNumber {
		t.Fatalf("staged result differs from computed result: %+v vs %+v", entry.Result, result)
	}

	// Login lands after completion: the auth event drains the staged entry.
	if err := svc.AuthenticationEstablished(ctx, "angular-basics", "tok"); err != nil {
		t.Fatalf("auth established: %v", err)
	}
	if _, ok, _ := pending.Get(ctx, "angular-basics"); ok {
		t.Fatalf("expected entry cleared after successful sync")
	}
	if ids := syncer.syncedIDs(); len(ids) != 1 || ids[0] != "angular-basics" {
		t.Fatalf("expected one synced result, got %v", ids)
	}
}

func TestAuthenticationEstablishedWithoutPendingEntry(t *testing.T) {
	svc, _ := newTestService(&recordingSynchronizer{}, auth.NewStaticTokenSource(""))

	err := svc.AuthenticationEstablished(context.Background(), "angular-basics", "tok")
	if !errors.Is(err, domain.ErrNoPendingResult) {
		t.Fatalf("expected ErrNoPendingResult, got %v", err)
	}
}

func TestAuthenticationEstablishedKeepsEntryOnSyncFailure(t *testing.T) {
	ctx := context.Background()
	syncer := &recordingSynchronizer{failOn: map[string]bool{"react-hooks": true}}
	svc, pending := newTestService(syncer, auth.NewStaticTokenSource(""))

	ctrl, err := svc.StartSession(ctx, "react")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer svc.EndSession(ctrl.ID())
	runToCompletion(t, ctrl)

	if err := svc.AuthenticationEstablished(ctx, "react-hooks", "tok"); !errors.Is(err, domain.ErrSyncFailed) {
		t.Fatalf("expected ErrSyncFailed, got %v", err)
	}
	if _, ok, _ := pending.Get(ctx, "react-hooks"); !ok {
		t.Fatalf("failed sync must leave the entry staged")
	}
}

func TestResyncPendingDrainsWhatItCan(t *testing.T) {
	ctx := context.Background()
	syncer := &recordingSynchronizer{failOn: map[string]bool{"react-hooks": true}}
	svc, pending := newTestService(syncer, auth.NewStaticTokenSource(""))

	for _, topic := range []string{"angular", "react"} {
		ctrl, err := svc.StartSession(ctx, topic)
		if err != nil {
			t.Fatalf("start session %s: %v", topic, err)
		}
		runToCompletion(t, ctrl)
		svc.EndSession(ctrl.ID())
	}

	synced, err := svc.ResyncPending(ctx, "tok")
	if synced != 1 {
		t.Fatalf("expected one synced entry, got %d", synced)
	}
	if !errors.Is(err, domain.ErrSyncFailed) {
		t.Fatalf("expected failure from the unsyncable entry, got %v", err)
	}
	if _, ok, _ := pending.Get(ctx, "angular-basics"); ok {
		t.Fatalf("expected angular entry drained")
	}
	if _, ok, _ := pending.Get(ctx, "react-hooks"); !ok {
		t.Fatalf("expected react entry still staged")
	}
}

func TestSessionLookupAndEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(&recordingSynchronizer{}, auth.NewTokenHolder())

	ctrl, err := svc.StartSession(ctx, "angular")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	got, err := svc.Session(ctrl.ID())
	if err != nil || got != ctrl {
		t.Fatalf("expected session lookup to return controller, err=%v", err)
	}

	svc.EndSession(ctrl.ID())
	if _, err := svc.Session(ctrl.ID()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after end, got %v", err)
	}
}
