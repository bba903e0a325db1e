// Package completion provides the chat-completion backends behind the
// domain.Completer port.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RelayCompleter posts to the bespoke chat_completion endpoint, either
// directly or through the relay server. 429 and 5xx responses are
// retried with exponential backoff; other 4xx responses fail permanently.
type RelayCompleter struct {
	httpClient *http.Client
	endpoint   string
	authToken  string
	model      string
	maxElapsed time.Duration
}

// RelayOption configures a RelayCompleter.
type RelayOption func(*RelayCompleter)

// WithRelayHTTPClient overrides the HTTP client.
func WithRelayHTTPClient(c *http.Client) RelayOption {
	return func(r *RelayCompleter) { r.httpClient = c }
}

// WithRelayAuthToken sets the bearer credential. Leave empty when the
// relay server injects it.
func WithRelayAuthToken(token string) RelayOption {
	return func(r *RelayCompleter) { r.authToken = token }
}

// WithRelayMaxElapsed bounds the total retry time.
func WithRelayMaxElapsed(d time.Duration) RelayOption {
	return func(r *RelayCompleter) { r.maxElapsed = d }
}

// NewRelayCompleter creates a completer for the chat_completion endpoint
// at the given URL, requesting the given model.
func NewRelayCompleter(endpoint, model string, opts ...RelayOption) *RelayCompleter {
	r := &RelayCompleter{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		endpoint:   endpoint,
		model:      model,
		maxElapsed: time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type completionRequest struct {
	Model    string           `json:"model"`
	Messages []domain.Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements domain.Completer.
func (r *RelayCompleter) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	l := logger.Get()

	body, err := json.Marshal(completionRequest{Model: r.model, Messages: messages})
	if err != nil {
		return "", domain.NewLLMServiceError(err)
	}

	var out completionResponse
	op := func() error {
		// Recreate the request each attempt to avoid reusing a consumed body.
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if r.authToken != "" {
			req.Header.Set("Authorization", "Bearer "+r.authToken)
		}

		resp, err := r.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			l.Warn("Completion endpoint rate limited", zap.Int("status", resp.StatusCode))
			return fmt.Errorf("rate limited: %d", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("completion status %d", resp.StatusCode))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			l.Warn("Completion endpoint unavailable", zap.Int("status", resp.StatusCode))
			return fmt.Errorf("completion status %d", resp.StatusCode)
		}

		out = completionResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return err
		}
		return nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = r.maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		return "", domain.NewLLMServiceError(err)
	}

	if len(out.Choices) == 0 {
		return "", domain.NewLLMServiceError(errors.New("empty choices in completion response"))
	}
	return out.Choices[0].Message.Content, nil
}
