// Package remote loads question sets from the upstream assessment API.
package remote

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"nxt-assess-service/internal/adapter"
	"nxt-assess-service/internal/domain"
)

// QuestionLoader performs a single GET of the question-set endpoint per load.
// It never retries; recovery is the caller's user-triggered retry.
type QuestionLoader struct {
	endpoint string
	client   *http.Client
}

func NewQuestionLoader(endpoint string) *QuestionLoader {
	return &QuestionLoader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (l *QuestionLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	target := l.endpoint
	if setID != "" {
		if u, err := url.Parse(l.endpoint); err == nil {
			q := u.Query()
			q.Set("setId", setID)
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.QuestionSet{}, &domain.FetchError{URL: target, Err: err}
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return domain.QuestionSet{}, &domain.FetchError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.QuestionSet{}, &domain.FetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.QuestionSet{}, &domain.FetchError{URL: target, Err: err}
	}
	set, err := adapter.ParseSet(setID, body)
	if err != nil {
		return domain.QuestionSet{}, &domain.FetchError{URL: target, Err: err}
	}
	return set, nil
}
