package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"challenge-solver/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsFirstChoiceContent(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices":[{"message":{"content":"{\"solution\": 6}"}}]}`)
	}))
	t.Cleanup(server.Close)

	c := NewRelayCompleter(server.URL, "gpt-4o-mini")
	content, err := c.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "hola"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"solution": 6}`, content)
	assert.Equal(t, "gpt-4o-mini", gotBody["model"])
}

func TestCompleteRetriesRateLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	c := NewRelayCompleter(server.URL, "gpt-4o-mini", WithRelayMaxElapsed(10*time.Second))
	content, err := c.Complete(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "ok", content)
	assert.Equal(t, 2, calls)
}

func TestCompleteClientErrorIsPermanent(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	c := NewRelayCompleter(server.URL, "gpt-4o-mini")
	_, err := c.Complete(context.Background(), nil)
	require.Error(t, err)

	assert.Equal(t, 1, calls, "4xx must not be retried")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeLLMServiceError, domainErr.Code)
}

func TestCompleteEmptyChoicesFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	t.Cleanup(server.Close)

	c := NewRelayCompleter(server.URL, "gpt-4o-mini")
	_, err := c.Complete(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty choices")
}

func TestCompleteSendsBearerWhenConfigured(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	t.Cleanup(server.Close)

	c := NewRelayCompleter(server.URL, "gpt-4o-mini", WithRelayAuthToken("tok"))
	_, err := c.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth)
}
