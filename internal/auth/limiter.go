package auth

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// LoginLimiter throttles login attempts per handle. A handle's limiter is
// dropped after it has been idle for the refill time of a full burst.
type LoginLimiter struct {
	mu       sync.Mutex
	every    time.Duration
	burst    int
	limiters *gocache.Cache
}

// NewLoginLimiter allows burst attempts per handle, refilled one every interval.
func NewLoginLimiter(every time.Duration, burst int) *LoginLimiter {
	if burst <= 0 {
		burst = 1
	}
	idle := every * time.Duration(burst)
	return &LoginLimiter{
		every:    every,
		burst:    burst,
		limiters: gocache.New(idle, 2*idle),
	}
}

func handleKey(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}

func (l *LoginLimiter) Allow(handle string) bool {
	key := handleKey(handle)
	l.mu.Lock()
	var lim *rate.Limiter
	if v, ok := l.limiters.Get(key); ok {
		lim = v.(*rate.Limiter)
	} else {
		lim = rate.NewLimiter(rate.Every(l.every), l.burst)
	}
	// refresh the idle deadline on every attempt
	l.limiters.SetDefault(key, lim)
	l.mu.Unlock()
	return lim.Allow()
}

// Forget drops the limiter of a handle after a successful login.
func (l *LoginLimiter) Forget(handle string) {
	l.limiters.Delete(handleKey(handle))
}

// Len reports how many handles are currently tracked.
func (l *LoginLimiter) Len() int {
	return l.limiters.ItemCount()
}
