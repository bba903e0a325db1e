package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"challenge-solver/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelayApp(upstreamURL string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	app.Use(middleware.RequestID())
	app.Get("/healthz", Healthz)
	app.Post("/api/chat_completion", NewRelayHandler(upstreamURL, "relay-secret").ChatCompletion)
	return app
}

func TestChatCompletionForwardsBodyAndInjectsBearer(t *testing.T) {
	var gotAuth, gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"solution\": 6}"}}]}`))
	}))
	t.Cleanup(upstream.Close)

	app := newRelayApp(upstream.URL)

	payload := `{"model":"gpt-4o-mini","messages":[{"role":"user","content":"hola"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat_completion", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer relay-secret", gotAuth)
	assert.JSONEq(t, payload, gotBody)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "choices")
}

func TestChatCompletionPreservesUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota"}`, http.StatusTooManyRequests)
	}))
	t.Cleanup(upstream.Close)

	app := newRelayApp(upstream.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/chat_completion", strings.NewReader(`{}`))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestChatCompletionTransportFailure(t *testing.T) {
	// Point at a server that is already closed.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	app := newRelayApp(url)
	req := httptest.NewRequest(http.MethodPost, "/api/chat_completion", strings.NewReader(`{}`))

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "Failed to process chat completion", payload["error"])
}

func TestHealthz(t *testing.T) {
	app := newRelayApp("http://unused")
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
