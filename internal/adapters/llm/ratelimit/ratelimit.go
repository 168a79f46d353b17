// Package ratelimit paces calls to translation APIs.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter allows qps requests per second with a burst of one.
// A limit of zero or less disables pacing.
type Limiter struct {
	mu  sync.RWMutex
	qps float64
	l   *rate.Limiter
}

func New(qps float64) *Limiter {
	rl := &Limiter{}
	rl.SetLimit(qps)
	return rl
}

func (rl *Limiter) SetLimit(qps float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.qps = qps
	if qps <= 0 {
		rl.l = rate.NewLimiter(rate.Inf, 1)
		return
	}
	rl.l = rate.NewLimiter(rate.Limit(qps), 1)
}

func (rl *Limiter) Limit() float64 {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return rl.qps
}

// Wait blocks until a request may proceed or ctx is done.
func (rl *Limiter) Wait(ctx context.Context) error {
	rl.mu.RLock()
	l := rl.l
	rl.mu.RUnlock()
	return l.Wait(ctx)
}
