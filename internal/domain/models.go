package domain

import "time"

// Phase identifies where a quiz session is in its lifecycle.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseFinalizing Phase = "finalizing"
	PhaseCompleted  Phase = "completed"
)

// Question models an MCQ question; options are keyed by option key and exactly
// one key is correct.
type Question struct {
	ID               string            `json:"id"`
	Prompt           string            `json:"prompt"`
	Options          map[string]string `json:"options"`
	CorrectOptionKey string            `json:"correctOptionKey"`
}

// QuestionBank is the fixed question set for one topic, fetched once per session.
type QuestionBank struct {
	ID        string     `json:"id"`
	TopicKey  string     `json:"topicKey"`
	Questions []Question `json:"questions"`
}

// AnswerRecord captures the graded answer for a single question. Records are
// append-only; one record exists per question index and is never mutated.
type AnswerRecord struct {
	QuestionID        string `json:"questionId"`
	SelectedOptionKey string `json:"selectedOptionKey,omitempty"`
	CorrectOptionKey  string `json:"correctOptionKey"`
	IsCorrect         bool   `json:"isCorrect"`
}

// NewAnswerRecord grades a selection against the question. An empty selection
// (question timed out with no choice) is always incorrect.
func NewAnswerRecord(q Question, selectedOptionKey string) AnswerRecord {
	return AnswerRecord{
		QuestionID:        q.ID,
		SelectedOptionKey: selectedOptionKey,
		CorrectOptionKey:  q.CorrectOptionKey,
		IsCorrect:         selectedOptionKey != "" && selectedOptionKey == q.CorrectOptionKey,
	}
}

// QuizResult is the immutable snapshot produced once at session completion.
type QuizResult struct {
	QuizID                string         `json:"quizId"`
	Score                 int            `json:"score"`
	TotalQuestions        int            `json:"totalQuestions"`
	Answers               []AnswerRecord `json:"answers"`
	TotalTimeTakenSeconds int            `json:"totalTimeTakenSeconds"`
	AttemptNumber         int            `json:"attemptNumber"`
}

// PendingResultEntry is a completed result staged in durable storage until a
// successful sync removes it. At most one entry per quiz id is kept; a new
// completion for the same id overwrites any stale entry.
type PendingResultEntry struct {
	QuizID    string     `json:"quizId"`
	Result    QuizResult `json:"result"`
	CreatedAt time.Time  `json:"createdAt"`
}
