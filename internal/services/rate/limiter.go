package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const loginWindow = time.Minute

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter throttles credential-guessing on the login endpoint. Counting is
// per (email, client IP) pair so a shared NAT cannot lock out a whole office.
type Limiter struct {
	store     WindowStore
	perMinute int
}

func NewLimiter(store WindowStore, perMinute int) *Limiter {
	if perMinute < 0 {
		perMinute = 0
	}

	return &Limiter{
		store:     store,
		perMinute: perMinute,
	}
}

// AllowLogin reports whether another attempt is allowed and, when it is not,
// how long the caller should wait.
func (l *Limiter) AllowLogin(ctx context.Context, email, remoteIP string) (int64, bool, error) {
	if l == nil || l.store == nil || l.perMinute == 0 {
		return 0, true, nil
	}

	key := loginKey(email, remoteIP)
	count, ttl, err := l.store.IncrementWindow(ctx, key, loginWindow)
	if err != nil {
		return 0, false, fmt.Errorf("increment login window: %w", err)
	}
	if count > int64(l.perMinute) {
		return ceilSeconds(ttl), false, nil
	}

	return 0, true, nil
}

func loginKey(email, remoteIP string) string {
	return "rate:login:min:" + strings.ToLower(strings.TrimSpace(email)) + ":" + remoteIP
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	if sec <= 0 {
		sec = 1
	}
	return sec
}
