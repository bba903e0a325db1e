package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitSpacesDispatches(t *testing.T) {
	const interval = 20 * time.Millisecond
	l := NewLimiter(interval)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 4; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	elapsed := time.Since(start)

	// Three gaps after the first dispatch.
	assert.GreaterOrEqual(t, elapsed, 3*interval)
}

func TestWaitFirstCallIsImmediate(t *testing.T) {
	l := NewLimiter(time.Second)

	start := time.Now()
	require.NoError(t, l.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitDisabledInterval(t *testing.T) {
	l := NewLimiter(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitHonorsContext(t *testing.T) {
	l := NewLimiter(time.Minute)
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNilLimiterIsNoop(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}
