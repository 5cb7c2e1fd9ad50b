package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"student_outreach_engine/internal/domain/dispatch"
)

// RateLimiter caps dispatch attempts per fixed time unit. The authoritative
// count lives in the durable dispatch ledger, not in memory: the remaining
// budget is derived by counting records attempted inside the current unit,
// so a process restart mid-unit cannot over-admit. A token-bucket pacer
// additionally smooths sends inside a tick so a full budget is not burst at
// the provider in one instant.
type RateLimiter struct {
	dispatches dispatch.Repository
	cap        int
	unit       time.Duration
	pacer      *rate.Limiter
}

func NewRateLimiter(dr dispatch.Repository, capPerUnit int, unit time.Duration) (*RateLimiter, error) {
	if capPerUnit <= 0 {
		return nil, fmt.Errorf("rate limit cap must be positive, got %d", capPerUnit)
	}
	if unit <= 0 {
		return nil, fmt.Errorf("rate limit unit must be positive, got %s", unit)
	}
	perSecond := rate.Limit(float64(capPerUnit) / unit.Seconds())
	return &RateLimiter{
		dispatches: dr,
		cap:        capPerUnit,
		unit:       unit,
		pacer:      rate.NewLimiter(perSecond, capPerUnit),
	}, nil
}

// Budget returns how many dispatches may still be initiated in the unit
// containing now.
func (l *RateLimiter) Budget(ctx context.Context, now time.Time) (int, error) {
	unitStart := now.Truncate(l.unit)
	used, err := l.dispatches.CountAttemptedSince(ctx, unitStart)
	if err != nil {
		return 0, fmt.Errorf("counting dispatches in current unit: %w", err)
	}
	remaining := l.cap - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// Wait blocks until the pacer admits one more send or the context ends.
func (l *RateLimiter) Wait(ctx context.Context) error {
	return l.pacer.Wait(ctx)
}
