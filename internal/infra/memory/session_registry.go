package memory

import (
	"sync"

	"quiz-session-engine/internal/session"
)

// SessionRegistry tracks live session controllers by session id.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*session.Controller
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*session.Controller)}
}

func (r *SessionRegistry) Put(id string, ctrl *session.Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = ctrl
}

func (r *SessionRegistry) Get(id string) (*session.Controller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctrl, ok := r.sessions[id]
	return ctrl, ok
}

// Delete removes and closes the controller, cancelling its countdown.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	ctrl, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		ctrl.Close()
	}
}
