// Package resultsync submits completed quiz results to the backend. One network
// call per invocation; retry policy lives with the caller (the next auth event
// or an explicit resync).
package resultsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quiz-session-engine/internal/domain"
)

// Client posts results to {baseURL}/quiz-results with a bearer credential.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func New(baseURL string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, httpc: httpc}
}

type resultPayload struct {
	MCQID              string `json:"mcqId"`
	TotalTimeTaken     int    `json:"totalTimeTaken"`
	CorrectAnswerCount int    `json:"correctAnswerCount"`
	WrongAnswerCount   int    `json:"wrongAnswerCount"`
	AttemptCount       int    `json:"attemptCount"`
}

// Sync performs a single submission attempt. Any non-2xx response or transport
// failure is reported as ErrSyncFailed; the staged entry is the caller's to keep.
func (c *Client) Sync(ctx context.Context, result domain.QuizResult, credential string) error {
	if credential == "" {
		return domain.ErrNoCredential
	}

	payload := resultPayload{
		MCQID:              result.QuizID,
		TotalTimeTaken:     result.TotalTimeTakenSeconds,
		CorrectAnswerCount: result.Score,
		WrongAnswerCount:   result.TotalQuestions - result.Score,
		AttemptCount:       result.AttemptNumber,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quiz-results", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSyncFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: backend returned status %d", domain.ErrSyncFailed, resp.StatusCode)
	}
	return nil
}
