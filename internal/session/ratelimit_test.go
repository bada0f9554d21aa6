package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	require.True(t, rl.Allow("ip1"))
	require.True(t, rl.Allow("ip1"))
	require.True(t, rl.Allow("ip1"))
	require.False(t, rl.Allow("ip1"))
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	require.True(t, rl.Allow("ip1"))
	require.False(t, rl.Allow("ip1"))

	time.Sleep(20 * time.Millisecond)
	require.True(t, rl.Allow("ip1"))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	require.True(t, rl.Allow("ip1"))
	require.True(t, rl.Allow("ip2"))
}
