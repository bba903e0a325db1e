package challenge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"challenge-solver/internal/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Policy {
	return retry.Policy{MaxAttempts: 3, Delay: time.Millisecond, Backoff: retry.BackoffFixed}
}

func TestFetchChallenge(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/challenge/start", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"id": "abc-123", "problem": "¿Cuál es el peso de pikachu?"}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "secret-token")
	ch, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "abc-123", ch.ID)
	assert.Equal(t, "¿Cuál es el peso de pikachu?", ch.Problem)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestFetchTestChallengeCarriesSolution(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/challenge/test", r.URL.Path)
		fmt.Fprint(w, `{"id": "t-1", "problem": "p", "expression": "x", "solution": 42}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "")
	ch, err := client.FetchTest(context.Background())
	require.NoError(t, err)

	require.NotNil(t, ch.Solution)
	assert.Equal(t, 42.0, *ch.Solution)
}

func TestSubmitPostsProblemID(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/challenge/solution", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		fmt.Fprint(w, `{"success": true, "message": "Correcto"}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "token", WithRetryPolicy(fastRetry()))
	result, err := client.Submit(context.Background(), "abc-123", 6.0)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "Correcto", result.Message)
	assert.Equal(t, "abc-123", body["problem_id"])
	assert.Equal(t, 6.0, body["answer"])
}

func TestSubmitZeroShortCircuitsUnderPolicy(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"success": true, "message": "unexpected"}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "token", WithRejectZero(true))
	result, err := client.Submit(context.Background(), "abc-123", 0)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, RejectZeroMessage, result.Message)
	assert.Equal(t, 0, calls, "zero answer must not reach the network")
}

func TestSubmitZeroAllowedWithoutPolicy(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"success": false, "message": "Incorrecto"}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "token", WithRetryPolicy(fastRetry()))
	result, err := client.Submit(context.Background(), "abc-123", 0)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 1, calls)
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"success": true, "message": "Correcto"}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, "token", WithRetryPolicy(fastRetry()))
	result, err := client.Submit(context.Background(), "abc-123", 6.0)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 3, calls)
}
