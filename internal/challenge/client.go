// Package challenge talks to the challenge service: fetching problem
// instances and submitting numeric answers.
package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"challenge-solver/internal/domain"
	"challenge-solver/internal/logger"
	"challenge-solver/internal/retry"

	"go.uber.org/zap"
)

// RejectZeroMessage is returned when the zero-answer policy short-circuits
// a submission.
const RejectZeroMessage = "La solución no puede ser cero"

// Client is the challenge service client. RejectZero is a policy switch:
// whether a zero-valued answer is refused locally without a network call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	authToken  string
	rejectZero bool
	policy     retry.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRejectZero enables the zero-answer rejection policy.
func WithRejectZero(reject bool) Option {
	return func(cl *Client) { cl.rejectZero = reject }
}

// WithRetryPolicy sets the retry policy applied to submissions.
func WithRetryPolicy(p retry.Policy) Option {
	return func(cl *Client) { cl.policy = p }
}

// NewClient creates a challenge service client rooted at baseURL,
// authenticating with the given bearer token.
func NewClient(baseURL, authToken string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		authToken:  authToken,
		policy:     retry.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the next challenge from /challenge/start.
func (c *Client) Fetch(ctx context.Context) (*domain.Challenge, error) {
	return c.fetch(ctx, "/challenge/start")
}

// FetchTest retrieves a dry-run challenge from /challenge/test, which
// also carries the reference expression and solution.
func (c *Client) FetchTest(ctx context.Context) (*domain.Challenge, error) {
	return c.fetch(ctx, "/challenge/test")
}

func (c *Client) fetch(ctx context.Context, path string) (*domain.Challenge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, domain.NewChallengeServiceError(err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewChallengeServiceError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewChallengeServiceError(fmt.Errorf("challenge fetch: status %d", resp.StatusCode))
	}

	var ch domain.Challenge
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		return nil, domain.NewChallengeServiceError(err)
	}
	logger.Get().Info("Fetched challenge", zap.String("id", ch.ID))
	return &ch, nil
}

// Submit posts an answer for problemID and returns the service's
// verdict. Under the zero-answer policy a zero value short-circuits
// locally as a failed result, with no network call.
func (c *Client) Submit(ctx context.Context, problemID string, answer float64) (*domain.SubmissionResult, error) {
	if c.rejectZero && answer == 0 {
		logger.Get().Warn("Rejecting zero answer locally", zap.String("problem_id", problemID))
		return &domain.SubmissionResult{Success: false, Message: RejectZeroMessage}, nil
	}

	body, err := json.Marshal(struct {
		ProblemID string  `json:"problem_id"`
		Answer    float64 `json:"answer"`
	}{ProblemID: problemID, Answer: answer})
	if err != nil {
		return nil, domain.NewInternalError("failed to encode submission", err)
	}

	result, err := retry.DoValue(ctx, c.policy, func(ctx context.Context) (*domain.SubmissionResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/challenge/solution", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("submit answer: status %d", resp.StatusCode)
		}

		var sr domain.SubmissionResult
		if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
			return nil, err
		}
		return &sr, nil
	})
	if err != nil {
		return nil, domain.NewChallengeServiceError(err)
	}

	logger.Get().Info("Submitted answer",
		zap.String("problem_id", problemID),
		zap.Float64("answer", answer),
		zap.Bool("success", result.Success))
	return result, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
}
