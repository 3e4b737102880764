package resultsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"quiz-session-engine/internal/domain"
)

func sampleResult() domain.QuizResult {
	return domain.QuizResult{
		QuizID:         "angular-basics",
		Score:          2,
		TotalQuestions: 3,
		Answers: []domain.AnswerRecord{
			{QuestionID: "q1", SelectedOptionKey: "a", CorrectOptionKey: "a", IsCorrect: true},
			{QuestionID: "q2", CorrectOptionKey: "b"},
			{QuestionID: "q3", SelectedOptionKey: "c", CorrectOptionKey: "c", IsCorrect: true},
		},
		TotalTimeTakenSeconds: 95,
		AttemptNumber:         2,
	}
}

func TestSyncPostsResultWithBearerCredential(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/quiz-results", r.URL.Path)
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	require.NoError(t, client.Sync(context.Background(), sampleResult(), "tok-123"))

	require.Equal(t, "angular-basics", got["mcqId"])
	require.Equal(t, float64(95), got["totalTimeTaken"])
	require.Equal(t, float64(2), got["correctAnswerCount"])
	require.Equal(t, float64(1), got["wrongAnswerCount"])
	require.Equal(t, float64(2), got["attemptCount"])
}

func TestSyncReportsBackendRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, server.Client())
	err := client.Sync(context.Background(), sampleResult(), "tok-123")
	require.ErrorIs(t, err, domain.ErrSyncFailed)
}

func TestSyncRefusesEmptyCredential(t *testing.T) {
	client := New("http://backend.invalid", nil)
	err := client.Sync(context.Background(), sampleResult(), "")
	require.ErrorIs(t, err, domain.ErrNoCredential)
}
