package middleware

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

// RequestIDKey is the locals key under which the request id is stored.
const RequestIDKey = "request_id"

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RequestID tags every request with a ULID, exposed in locals and the
// X-Request-Id response header.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get("X-Request-Id")
		if id == "" {
			id = newRequestID()
		}
		c.Locals(RequestIDKey, id)
		c.Set("X-Request-Id", id)
		return c.Next()
	}
}
