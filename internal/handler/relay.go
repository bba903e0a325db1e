// Package handler holds the relay server's HTTP handlers.
package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"challenge-solver/internal/logger"
	"challenge-solver/internal/metrics"
	"challenge-solver/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RelayHandler forwards chat-completion requests to the upstream
// endpoint with an injected bearer credential. Pure pass-through: no
// body validation, upstream status and body returned verbatim. The
// credential is never logged.
type RelayHandler struct {
	httpClient  *http.Client
	upstreamURL string
	authToken   string
}

// NewRelayHandler creates a RelayHandler for the given upstream.
func NewRelayHandler(upstreamURL, authToken string) *RelayHandler {
	return &RelayHandler{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		upstreamURL: upstreamURL,
		authToken:   authToken,
	}
}

// WithHTTPClient overrides the upstream HTTP client.
func (h *RelayHandler) WithHTTPClient(c *http.Client) *RelayHandler {
	h.httpClient = c
	return h
}

// ChatCompletion handles POST /api/chat_completion.
func (h *RelayHandler) ChatCompletion(c *fiber.Ctx) error {
	l := logger.Get()
	requestID, _ := c.Locals(middleware.RequestIDKey).(string)

	req, err := http.NewRequestWithContext(c.Context(), http.MethodPost, h.upstreamURL, bytes.NewReader(c.Body()))
	if err != nil {
		return h.fail(c, requestID, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.authToken)

	start := time.Now()
	metrics.RelayRequests.Inc()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return h.fail(c, requestID, err)
	}
	defer resp.Body.Close()
	metrics.RelayDuration.Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return h.fail(c, requestID, err)
	}

	l.Info("Forwarded chat completion",
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	c.Set(fiber.HeaderContentType, resp.Header.Get("Content-Type"))
	return c.Status(resp.StatusCode).Send(body)
}

func (h *RelayHandler) fail(c *fiber.Ctx, requestID string, err error) error {
	metrics.RelayFailures.Inc()
	logger.Get().Error("Chat completion relay failed",
		zap.String("request_id", requestID),
		zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to process chat completion",
	})
}

// Healthz handles GET /healthz.
func Healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
