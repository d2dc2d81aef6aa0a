package live

import (
	"sync"
	"time"

	"chat-hub/domain"
)

// Limiter bounds how frequently a user may originate persisted events on the
// live path. One message is accepted per MinInterval; rejected attempts do
// not touch state, so a burst of rejects never extends the cooldown.
type Limiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	last        map[domain.UserID]time.Time
}

func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		last:        make(map[domain.UserID]time.Time),
	}
}

// TryAccept reports whether the attempt at `now` is within budget and, if
// accepted, records it. Accepted timestamps are monotonically non-decreasing
// per user.
func (l *Limiter) TryAccept(user domain.UserID, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[user]
	if ok && now.Sub(last) < l.minInterval {
		return false
	}
	if ok && now.Before(last) {
		// Clock went backwards; keep the stored timestamp authoritative.
		return false
	}
	l.last[user] = now
	return true
}

// RetryAfter returns how long the user must wait before the next attempt can
// be accepted. Zero means an attempt would be accepted right now.
func (l *Limiter) RetryAfter(user domain.UserID, now time.Time) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.last[user]
	if !ok {
		return 0
	}
	remaining := l.minInterval - now.Sub(last)
	if remaining < 0 {
		return 0
	}
	return remaining
}
