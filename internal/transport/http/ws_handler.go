package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-session-engine/internal/app"
	"quiz-session-engine/internal/auth"
	"quiz-session-engine/internal/domain"
	"quiz-session-engine/internal/session"
)

// WSHandler runs one quiz session per websocket connection: the countdown and
// state machine live server-side, the client sends input events and renders
// whatever state arrives.
type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	OptionKey string `json:"optionKey"`
}

type authenticatePayload struct {
	Token string `json:"token"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sessionPayload struct {
	SessionID      string `json:"sessionId"`
	QuizID         string `json:"quizId"`
	TopicKey       string `json:"topicKey"`
	TotalQuestions int    `json:"totalQuestions"`
	Attempt        int    `json:"attempt"`
}

// questionPayload never carries the correct option key; it is revealed only on
// the answer record after the question is locked in.
type questionPayload struct {
	Index      int               `json:"index"`
	Total      int               `json:"total"`
	QuestionID string            `json:"questionId"`
	Prompt     string            `json:"prompt"`
	Options    map[string]string `json:"options"`
	Remaining  int               `json:"remaining"`
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type completedPayload struct {
	Result     domain.QuizResult `json:"result"`
	Percentage int               `json:"percentage"`
}

// ServeWS upgrades the request and drives a full quiz session over it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	topicKey := r.URL.Query().Get("topic")
	if topicKey == "" {
		http.Error(w, "missing topic", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	holder := auth.NewTokenHolder()
	if token := r.URL.Query().Get("token"); token != "" {
		holder.Set(token)
	}

	ctrl, err := h.service.StartSessionWithCredentials(r.Context(), topicKey, holder)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(ctrl.ID())

	events, cancel := ctrl.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- translateEvent(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	snap := ctrl.Snapshot()
	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{
		SessionID:      snap.SessionID,
		QuizID:         snap.QuizID,
		TopicKey:       snap.TopicKey,
		TotalQuestions: snap.TotalQuestions,
		Attempt:        snap.Attempt,
	}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if err := ctrl.Start(); err != nil {
				send <- errorMessage(err)
			}
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(errors.New("invalid select payload"))
				continue
			}
			if err := ctrl.SelectOption(payload.OptionKey); err != nil {
				send <- errorMessage(err)
			}
		case "advance":
			if err := ctrl.Advance(); err != nil {
				send <- errorMessage(err)
			}
		case "retake":
			if err := ctrl.Retake(); err != nil {
				send <- errorMessage(err)
				continue
			}
			if err := ctrl.Start(); err != nil {
				send <- errorMessage(err)
			}
		case "authenticate":
			var payload authenticatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Token == "" {
				send <- errorMessage(errors.New("invalid authenticate payload"))
				continue
			}
			holder.Set(payload.Token)
			err := h.service.AuthenticationEstablished(r.Context(), ctrl.QuizID(), payload.Token)
			switch {
			case err == nil:
				send <- outboundMessage[any]{Type: "synced", Payload: map[string]string{"quizId": ctrl.QuizID()}}
			case errors.Is(err, domain.ErrNoPendingResult):
				send <- outboundMessage[any]{Type: "authenticated", Payload: map[string]string{"quizId": ctrl.QuizID()}}
			default:
				send <- outboundMessage[any]{Type: "syncFailed", Payload: errorPayload{Message: err.Error()}}
			}
		default:
			send <- errorMessage(errors.New("unsupported message type"))
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}

func translateEvent(ev session.Event) outboundMessage[any] {
	switch ev.Type {
	case session.EventQuestion:
		return outboundMessage[any]{Type: "question", Payload: questionPayload{
			Index:      ev.Index,
			Total:      ev.Total,
			QuestionID: ev.Question.ID,
			Prompt:     ev.Question.Prompt,
			Options:    ev.Question.Options,
			Remaining:  ev.Remaining,
		}}
	case session.EventTick:
		return outboundMessage[any]{Type: "tick", Payload: tickPayload{Remaining: ev.Remaining}}
	case session.EventAnswerRecorded:
		return outboundMessage[any]{Type: "answerRecorded", Payload: *ev.Record}
	case session.EventCompleted:
		return outboundMessage[any]{Type: "completed", Payload: completedPayload{
			Result:     *ev.Result,
			Percentage: domain.Percentage(ev.Result.Answers, ev.Result.TotalQuestions),
		}}
	case session.EventAuthRequired:
		return outboundMessage[any]{Type: "authRequired", Payload: map[string]string{"quizId": ev.Result.QuizID}}
	case session.EventSynced:
		return outboundMessage[any]{Type: "synced", Payload: map[string]string{"quizId": ev.Result.QuizID}}
	case session.EventSyncFailed:
		return outboundMessage[any]{Type: "syncFailed", Payload: errorPayload{Message: ev.Err.Error()}}
	default:
		return errorMessage(errors.New("unknown session event"))
	}
}
