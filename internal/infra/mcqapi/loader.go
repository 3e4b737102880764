// Package mcqapi loads question banks from the backend MCQ API.
package mcqapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quiz-session-engine/internal/domain"
)

// Loader fetches a topic's question bank via GET {baseURL}/mcq/{topicKey}.
type Loader struct {
	baseURL string
	httpc   *http.Client
}

func NewLoader(baseURL string, httpc *http.Client) *Loader {
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Loader{baseURL: baseURL, httpc: httpc}
}

type bankResponse struct {
	ID        string            `json:"id"`
	Questions []domain.Question `json:"questions"`
}

func (l *Loader) LoadBank(ctx context.Context, topicKey string) (domain.QuestionBank, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/mcq/"+topicKey, nil)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.httpc.Do(req)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("fetch bank %q: %w", topicKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.QuestionBank{}, domain.ErrBankNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.QuestionBank{}, fmt.Errorf("fetch bank %q: status %d", topicKey, resp.StatusCode)
	}

	var payload bankResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("decode bank %q: %w", topicKey, err)
	}
	return domain.QuestionBank{
		ID:        payload.ID,
		TopicKey:  topicKey,
		Questions: payload.Questions,
	}, nil
}
