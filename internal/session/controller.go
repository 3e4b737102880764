// Package session implements the quiz session state machine: per-question
// countdown, exactly-once answer recording, score finalization, and the
// sync-or-stage branch at completion.
package session

import (
	"context"
	"sync"
	"time"

	"quiz-session-engine/internal/clock"
	"quiz-session-engine/internal/domain"
)

// Synchronizer pushes a completed result to the backend. One attempt per call,
// no internal retries.
type Synchronizer interface {
	Sync(ctx context.Context, result domain.QuizResult, credential string) error
}

// PendingStore stages completed results that are not yet persisted server-side.
type PendingStore interface {
	Stage(ctx context.Context, entry domain.PendingResultEntry) error
	Clear(ctx context.Context, quizID string) error
}

// CredentialSource reports the bearer credential when one is available.
type CredentialSource interface {
	Credential(ctx context.Context) (string, bool)
}

// Deps are the collaborators a controller drives at its transitions.
type Deps struct {
	Synchronizer Synchronizer
	Pending      PendingStore
	Credentials  CredentialSource
}

// Config tunes session timing. Zero values fall back to production defaults
// (60s per question, 1s ticks).
type Config struct {
	QuestionSeconds int
	TickInterval    time.Duration
	SyncTimeout     time.Duration
	Now             func() time.Time
}

const defaultQuestionSeconds = 60

func (c Config) withDefaults() Config {
	if c.QuestionSeconds <= 0 {
		c.QuestionSeconds = defaultQuestionSeconds
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = 10 * time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Controller owns all state for one quiz attempt. Every transition runs to
// completion under the mutex, so timer expiry, user input, and the auth event
// can never interleave mid-transition.
type Controller struct {
	id        string
	quizID    string
	topicKey  string
	questions []domain.Question
	countdown *clock.Countdown
	cfg       Config
	deps      Deps

	mu          sync.Mutex
	phase       domain.Phase
	index       int
	answers     []domain.AnswerRecord
	selection   string
	remaining   int
	attempt     int
	startedAt   time.Time
	result      *domain.QuizResult
	handle      *clock.Handle
	closed      bool
	subscribers map[chan Event]struct{}
}

// New builds a controller for one attempt at the given bank. The first attempt
// is numbered 1; Retake increments it.
func New(id string, bank domain.QuestionBank, deps Deps, cfg Config) *Controller {
	cfg = cfg.withDefaults()
	return &Controller{
		id:          id,
		quizID:      bank.ID,
		topicKey:    bank.TopicKey,
		questions:   bank.Questions,
		countdown:   clock.NewWithInterval(cfg.TickInterval),
		cfg:         cfg,
		deps:        deps,
		phase:       domain.PhaseNotStarted,
		attempt:     1,
		subscribers: make(map[chan Event]struct{}),
	}
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// QuizID returns the question bank identifier this attempt runs against.
func (c *Controller) QuizID() string { return c.quizID }

// Start moves NotStarted -> InProgress: records the attempt start time and
// begins the countdown for the first question.
func (c *Controller) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseNotStarted {
		return domain.ErrAlreadyStarted
	}
	if len(c.questions) == 0 {
		return domain.ErrBankNotFound
	}

	c.phase = domain.PhaseInProgress
	c.startedAt = c.cfg.Now()
	c.index = 0
	c.selection = ""
	c.remaining = c.cfg.QuestionSeconds
	c.startTimerLocked()
	c.broadcastLocked(c.questionEventLocked())
	return nil
}

// SelectOption stores the tentative selection for the current question without
// advancing. The selection is graded when the question advances, whether by
// user action or by timer expiry.
func (c *Controller) SelectOption(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseInProgress {
		return domain.ErrNotInProgress
	}
	if _, ok := c.questions[c.index].Options[key]; !ok {
		return domain.ErrUnknownOption
	}
	c.selection = key
	return nil
}

// Advance is the user-driven transition: it records the current selection and
// moves to the next question, or finalizes on the last one. A user advance
// requires a selection; only timer expiry may record an empty one.
func (c *Controller) Advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseInProgress {
		return domain.ErrNotInProgress
	}
	if c.selection == "" {
		return domain.ErrNoSelection
	}
	c.advanceLocked()
	return nil
}

// Retake resets the session for another attempt. Staged pending entries are
// left alone: an earlier attempt's result stays queued for sync until the
// backend accepts one.
func (c *Controller) Retake() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != domain.PhaseCompleted {
		return domain.ErrNotCompleted
	}
	c.attempt++
	c.answers = nil
	c.selection = ""
	c.index = 0
	c.remaining = 0
	c.result = nil
	c.phase = domain.PhaseNotStarted
	return nil
}

// Close cancels the countdown and detaches all subscribers. Outstanding sync
// calls are allowed to finish against the durable store on their own.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	for ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = make(map[chan Event]struct{})
}

// CurrentQuestion returns the active question while in progress.
func (c *Controller) CurrentQuestion() (domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != domain.PhaseInProgress {
		return domain.Question{}, false
	}
	return c.questions[c.index], true
}

// Snapshot is a point-in-time projection of session state.
type Snapshot struct {
	SessionID      string
	QuizID         string
	TopicKey       string
	Phase          domain.Phase
	Index          int
	TotalQuestions int
	Remaining      int
	Attempt        int
	Answers        []domain.AnswerRecord
	Result         *domain.QuizResult
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:      c.id,
		QuizID:         c.quizID,
		TopicKey:       c.topicKey,
		Phase:          c.phase,
		Index:          c.index,
		TotalQuestions: len(c.questions),
		Remaining:      c.remaining,
		Attempt:        c.attempt,
		Answers:        append([]domain.AnswerRecord(nil), c.answers...),
	}
	if c.result != nil {
		r := *c.result
		snap.Result = &r
	}
	return snap
}

// advanceLocked records exactly one answer for the current index and either
// moves to the next question or finalizes. Callers hold the mutex and have
// verified the InProgress phase, which makes a duplicate record unreachable.
func (c *Controller) advanceLocked() {
	rec := domain.NewAnswerRecord(c.questions[c.index], c.selection)
	c.answers = append(c.answers, rec)
	if c.handle != nil {
		c.handle.Cancel()
		c.handle = nil
	}
	c.broadcastLocked(Event{Type: EventAnswerRecorded, Index: c.index, Record: &rec})

	if c.index+1 < len(c.questions) {
		c.index++
		c.selection = ""
		c.remaining = c.cfg.QuestionSeconds
		c.startTimerLocked()
		c.broadcastLocked(c.questionEventLocked())
		return
	}
	c.finalizeLocked()
}

// finalizeLocked builds the immutable result snapshot and hands persistence off
// to a background goroutine, so the score is visible regardless of network state.
func (c *Controller) finalizeLocked() {
	c.phase = domain.PhaseFinalizing

	elapsed := int(c.cfg.Now().Sub(c.startedAt) / time.Second)
	result := domain.QuizResult{
		QuizID:                c.quizID,
		Score:                 domain.Score(c.answers),
		TotalQuestions:        len(c.questions),
		Answers:               append([]domain.AnswerRecord(nil), c.answers...),
		TotalTimeTakenSeconds: elapsed,
		AttemptNumber:         c.attempt,
	}
	c.result = &result
	c.phase = domain.PhaseCompleted
	c.broadcastLocked(Event{Type: EventCompleted, Result: &result})

	go c.persist(result)
}

// persist stages the result, then attempts an immediate sync when a credential
// is present. The staged entry is cleared only on a successful sync; a failed
// or skipped sync leaves it queued for the next authentication event or a
// manual resync.
func (c *Controller) persist(result domain.QuizResult) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.SyncTimeout)
	defer cancel()

	entry := domain.PendingResultEntry{
		QuizID:    result.QuizID,
		Result:    result,
		CreatedAt: c.cfg.Now(),
	}
	if err := c.deps.Pending.Stage(ctx, entry); err != nil {
		c.broadcast(Event{Type: EventSyncFailed, Result: &result, Err: err})
		return
	}

	cred, ok := c.deps.Credentials.Credential(ctx)
	if !ok {
		c.broadcast(Event{Type: EventAuthRequired, Result: &result})
		return
	}

	if err := c.deps.Synchronizer.Sync(ctx, result, cred); err != nil {
		c.broadcast(Event{Type: EventSyncFailed, Result: &result, Err: err})
		return
	}
	_ = c.deps.Pending.Clear(ctx, result.QuizID)
	c.broadcast(Event{Type: EventSynced, Result: &result})
}

func (c *Controller) startTimerLocked() {
	if c.handle != nil {
		c.handle.Cancel()
	}
	idx := c.index
	c.handle = c.countdown.Start(c.remaining,
		func(remaining int) { c.tick(idx, remaining) },
		func() { c.expire(idx) },
	)
}

func (c *Controller) tick(idx, remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != domain.PhaseInProgress || c.index != idx {
		return
	}
	c.remaining = remaining
	c.broadcastLocked(Event{Type: EventTick, Index: idx, Remaining: remaining})
}

// expire is the timer-driven advance. The index guard is the tie-break: if the
// user advanced in the same instant, the index already moved and the expiry is
// a no-op, so exactly one record exists per question.
func (c *Controller) expire(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != domain.PhaseInProgress || c.index != idx {
		return
	}
	c.remaining = 0
	c.advanceLocked()
}

func (c *Controller) questionEventLocked() Event {
	q := c.questions[c.index]
	return Event{
		Type:      EventQuestion,
		Index:     c.index,
		Total:     len(c.questions),
		Question:  &q,
		Remaining: c.remaining,
	}
}
