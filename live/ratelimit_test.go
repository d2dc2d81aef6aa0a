package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_First_Message_Accepted(t *testing.T) {
	req := require.New(t)
	limiter := NewLimiter(300 * time.Millisecond)
	now := time.Now()

	req.True(limiter.TryAccept("alice", now))
}

func TestLimiter_Too_Fast_Rejected(t *testing.T) {
	req := require.New(t)
	limiter := NewLimiter(300 * time.Millisecond)
	now := time.Now()

	req.True(limiter.TryAccept("alice", now))
	req.False(limiter.TryAccept("alice", now.Add(100*time.Millisecond)))
	req.True(limiter.TryAccept("alice", now.Add(300*time.Millisecond)))
}

func TestLimiter_Rejects_Do_Not_Extend_Cooldown(t *testing.T) {
	req := require.New(t)
	limiter := NewLimiter(300 * time.Millisecond)
	now := time.Now()

	// Given an accepted message at t0
	req.True(limiter.TryAccept("alice", now))

	// When a burst of rejected attempts hammers the limiter
	for i := 1; i <= 5; i++ {
		req.False(limiter.TryAccept("alice", now.Add(time.Duration(i)*50*time.Millisecond)))
	}

	// Then the cooldown still expires relative to t0, not the rejects
	req.True(limiter.TryAccept("alice", now.Add(300*time.Millisecond)))
}

func TestLimiter_Users_Are_Independent(t *testing.T) {
	req := require.New(t)
	limiter := NewLimiter(300 * time.Millisecond)
	now := time.Now()

	req.True(limiter.TryAccept("alice", now))
	req.True(limiter.TryAccept("bob", now))
	req.False(limiter.TryAccept("alice", now))
}

func TestLimiter_RetryAfter(t *testing.T) {
	req := require.New(t)
	limiter := NewLimiter(300 * time.Millisecond)
	now := time.Now()

	req.Zero(limiter.RetryAfter("alice", now))

	limiter.TryAccept("alice", now)
	req.Equal(200*time.Millisecond, limiter.RetryAfter("alice", now.Add(100*time.Millisecond)))
	req.Zero(limiter.RetryAfter("alice", now.Add(400*time.Millisecond)))
}
