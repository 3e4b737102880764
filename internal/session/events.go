package session

import "quiz-session-engine/internal/domain"

// EventType tags session events delivered to subscribers.
type EventType string

const (
	// EventQuestion announces the question now on the clock.
	EventQuestion EventType = "question"
	// EventTick carries the remaining seconds for the current question.
	EventTick EventType = "tick"
	// EventAnswerRecorded fires once per question index when its record is appended.
	EventAnswerRecorded EventType = "answerRecorded"
	// EventCompleted carries the finalized result; always emitted before any
	// sync outcome so the score is never blocked on the network.
	EventCompleted EventType = "completed"
	// EventAuthRequired signals the result was staged because no credential was
	// available at completion.
	EventAuthRequired EventType = "authRequired"
	// EventSynced signals the backend accepted the result and the staged entry
	// was cleared.
	EventSynced EventType = "synced"
	// EventSyncFailed signals a sync attempt failed; the entry stays staged.
	EventSyncFailed EventType = "syncFailed"
)

// Event is one session occurrence. Only the fields relevant to the type are set.
type Event struct {
	Type      EventType
	Index     int
	Total     int
	Remaining int
	Question  *domain.Question
	Record    *domain.AnswerRecord
	Result    *domain.QuizResult
	Err       error
}

// Subscribe returns a channel that receives session events. The caller must
// invoke the returned cancel function to avoid leaks.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subscribers[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		if _, ok := c.subscribers[ch]; ok {
			delete(c.subscribers, ch)
			close(ch)
		}
		c.mu.Unlock()
	}
	return ch, cancel
}

func (c *Controller) broadcast(ev Event) {
	c.mu.Lock()
	c.broadcastLocked(ev)
	c.mu.Unlock()
}

func (c *Controller) broadcastLocked(ev Event) {
	for ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest event rather than block the transition on a slow
			// subscriber.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
