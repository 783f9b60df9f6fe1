package http

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

const (
	loginLimiterSweepInterval = 5 * time.Minute
	loginLimiterIdleTTL       = time.Hour
)

type loginLimiterEntry struct {
	limiter    *rate.Limiter
	mu         sync.Mutex
	lastAccess time.Time
}

// LoginLimiter is a per-IP token bucket guarding the admin login endpoint against
// password guessing. It is separate from the class-based API throttling.
type LoginLimiter struct {
	limiters sync.Map // client IP -> *loginLimiterEntry
	rps      rate.Limit
	burst    int
	now      func() time.Time
	logger   *zap.Logger
}

// NewLoginLimiter builds a limiter allowing rps sustained attempts per IP.
func NewLoginLimiter(rps float64, burst int, logger *zap.Logger) *LoginLimiter {
	if burst < 1 {
		burst = 1
	}
	return &LoginLimiter{rps: rate.Limit(rps), burst: burst, now: time.Now, logger: logger}
}

// Run drops idle limiters until ctx is cancelled.
func (l *LoginLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(loginLimiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// Handle rejects the request with 429 when the client IP has no tokens left.
func (l *LoginLimiter) Handle(c *fiber.Ctx) error {
	ip := c.IP()
	limiter := l.limiterFor(ip)

	reservation := limiter.ReserveN(l.now(), 1)
	if !reservation.OK() {
		return apperrors.NewRateLimited(time.Second)
	}
	if delay := reservation.DelayFrom(l.now()); delay > 0 {
		reservation.CancelAt(l.now())
		l.logger.Debug("login rate limit exceeded", zap.String("client_ip", ip), zap.Duration("retry_after", delay))
		return apperrors.NewRateLimited(delay)
	}
	return c.Next()
}

func (l *LoginLimiter) limiterFor(ip string) *rate.Limiter {
	if val, ok := l.limiters.Load(ip); ok {
		entry := val.(*loginLimiterEntry)
		entry.mu.Lock()
		entry.lastAccess = l.now()
		entry.mu.Unlock()
		return entry.limiter
	}

	entry := &loginLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst), lastAccess: l.now()}
	actual, _ := l.limiters.LoadOrStore(ip, entry)
	return actual.(*loginLimiterEntry).limiter
}

func (l *LoginLimiter) sweep() {
	threshold := l.now().Add(-loginLimiterIdleTTL)
	l.limiters.Range(func(key, value any) bool {
		entry := value.(*loginLimiterEntry)
		entry.mu.Lock()
		idle := entry.lastAccess.Before(threshold)
		entry.mu.Unlock()
		if idle {
			l.limiters.Delete(key)
		}
		return true
	})
}
