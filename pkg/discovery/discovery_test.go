package discovery

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Find(ctx, Config{Timeout: time.Second})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindLeavesNoGoroutinesBehind(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := runtime.NumGoroutine()

	for i := 0; i < 5; i++ {
		_, _ = Find(ctx, Config{Timeout: time.Second})
	}

	// The browse and drain goroutines wind down shortly after Find
	// returns; the count must come back to the starting level.
	require.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before
	}, 3*time.Second, 50*time.Millisecond)
}
