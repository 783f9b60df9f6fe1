package ratelimit

import (
	"context"
	"time"

	"github.com/Cristi-la/EOL-Net/internal/domain"
)

// Request describes the caller of one HTTP request.
type Request struct {
	// Credentialed is true when a verified credential accompanied the request.
	Credentialed bool
	// Scope is the credential's throttle_scope claim.
	Scope string
	// Identity is the stable account id or the client address.
	Identity string
}

// Decision is the limiter's verdict for one request.
type Decision struct {
	Allowed    bool
	Class      string
	Key        string
	Count      int64
	Limit      int64
	RetryAfter time.Duration
}

// Limiter picks a throttle class per request and counts it against that class's budget.
type Limiter struct {
	rates map[string]Rate
	store CounterStore
}

// NewLimiter builds a limiter. Classes missing from rates are treated as unknown and
// fall back to the read class.
func NewLimiter(rates map[string]Rate, store CounterStore) *Limiter {
	copied := make(map[string]Rate, len(rates))
	for class, rate := range rates {
		copied[class] = rate
	}
	return &Limiter{rates: copied, store: store}
}

// ClassFor returns the throttle class a request is counted against.
func (l *Limiter) ClassFor(req Request) string {
	if !req.Credentialed {
		return string(domain.ThrottleAnonymous)
	}
	if _, ok := l.rates[req.Scope]; ok && req.Scope != "" {
		return req.Scope
	}
	return string(domain.ThrottleRead)
}

// Check counts req and reports whether it is within budget. A class without a rate is
// not counted at all.
func (l *Limiter) Check(ctx context.Context, req Request) (Decision, error) {
	class := l.ClassFor(req)
	decision := Decision{Allowed: true, Class: class}

	rate := l.rates[class]
	if !rate.Enabled() {
		return decision, nil
	}

	decision.Key = class + ":" + req.Identity
	decision.Limit = rate.Limit

	count, ttl, err := l.store.Incr(ctx, decision.Key, rate.Window)
	if err != nil {
		return decision, err
	}
	decision.Count = count
	if count > rate.Limit {
		decision.Allowed = false
		decision.RetryAfter = ttl
		if decision.RetryAfter <= 0 {
			decision.RetryAfter = rate.Window
		}
	}
	return decision, nil
}
