// Package app wires the quiz session use cases: starting attempts against a
// question bank, routing user input and timer events into the session state
// machine, and reconciling staged results when authentication arrives.
package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/session"
)

// SessionRegistry tracks live session controllers (in-memory; sessions do not
// outlive the process, staged results do).
type SessionRegistry interface {
	Put(id string, ctrl *session.Controller)
	Get(id string) (*session.Controller, bool)
	Delete(id string)
}

// QuestionRepository loads question banks (from cache/backing store).
type QuestionRepository interface {
	GetBank(ctx context.Context, topicKey string) (domain.QuestionBank, error)
}

// PendingResultStore is the durable staging area shared across controller
// instances and process restarts.
type PendingResultStore interface {
	Stage(ctx context.Context, entry domain.PendingResultEntry) error
	Get(ctx context.Context, quizID string) (domain.PendingResultEntry, bool, error)
	Clear(ctx context.Context, quizID string) error
	List(ctx context.Context) ([]domain.PendingResultEntry, error)
}

// Synchronizer submits one result to the backend per call.
type Synchronizer interface {
	Sync(ctx context.Context, result domain.QuizResult, credential string) error
}

// CredentialSource reports the bearer credential when one is available.
type CredentialSource interface {
	Credential(ctx context.Context) (string, bool)
}

// Config tunes new sessions; zero values use session defaults (60s questions).
type Config struct {
	QuestionSeconds int
	TickInterval    time.Duration
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions     SessionRegistry
	banks        QuestionRepository
	pending      PendingResultStore
	synchronizer Synchronizer
	credentials  CredentialSource
	cfg          Config
}

func NewQuizService(sessions SessionRegistry, banks QuestionRepository, pending PendingResultStore, synchronizer Synchronizer, credentials CredentialSource, cfg Config) *QuizService {
	return &QuizService{
		sessions:     sessions,
		banks:        banks,
		pending:      pending,
		synchronizer: synchronizer,
		credentials:  credentials,
		cfg:          cfg,
	}
}

// StartSession fetches the topic's bank and creates a session controller. A
// fetch failure surfaces to the caller and leaves no partial session behind.
// The caller still invokes Start on the returned controller to begin the clock.
func (s *QuizService) StartSession(ctx context.Context, topicKey string) (*session.Controller, error) {
	return s.StartSessionWithCredentials(ctx, topicKey, s.credentials)
}

// StartSessionWithCredentials is StartSession with a per-session credential
// source, for transports where each connection authenticates on its own.
func (s *QuizService) StartSessionWithCredentials(ctx context.Context, topicKey string, credentials CredentialSource) (*session.Controller, error) {
	bank, err := s.banks.GetBank(ctx, topicKey)
	if err != nil {
		return nil, err
	}

	ctrl := session.New(uuid.NewString(), bank, session.Deps{
		Synchronizer: s.synchronizer,
		Pending:      s.pending,
		Credentials:  credentials,
	}, session.Config{
		QuestionSeconds: s.cfg.QuestionSeconds,
		TickInterval:    s.cfg.TickInterval,
	})
	s.sessions.Put(ctrl.ID(), ctrl)
	return ctrl, nil
}

// Session looks up a live controller by session id.
func (s *QuizService) Session(id string) (*session.Controller, error) {
	ctrl, ok := s.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return ctrl, nil
}

// EndSession drops the controller and cancels its countdown. Any staged result
// stays in the pending store for a later authentication event.
func (s *QuizService) EndSession(id string) {
	s.sessions.Delete(id)
}

// AuthenticationEstablished handles the external login event for one quiz id:
// if a pending entry exists it is synced once and cleared on success. The event
// can arrive in any session phase, including long after the controller that
// staged the entry is gone; only the durable store is consulted.
func (s *QuizService) AuthenticationEstablished(ctx context.Context, quizID, credential string) error {
	entry, ok, err := s.pending.Get(ctx, quizID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNoPendingResult
	}
	if err := s.synchronizer.Sync(ctx, entry.Result, credential); err != nil {
		return err
	}
	return s.pending.Clear(ctx, quizID)
}

// ResyncPending makes one sync attempt per staged entry (manual retry). It
// returns how many entries synced; a failed entry stays staged and does not
// stop the rest.
func (s *QuizService) ResyncPending(ctx context.Context, credential string) (int, error) {
	entries, err := s.pending.List(ctx)
	if err != nil {
		return 0, err
	}

	synced := 0
	var lastErr error
	for _, entry := range entries {
		if err := s.synchronizer.Sync(ctx, entry.Result, credential); err != nil {
			lastErr = err
			continue
		}
		if err := s.pending.Clear(ctx, entry.QuizID); err != nil {
			lastErr = err
			continue
		}
		synced++
	}
	return synced, lastErr
}
