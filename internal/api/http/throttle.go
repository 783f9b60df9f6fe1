package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Cristi-la/EOL-Net/internal/auth"
	"github.com/Cristi-la/EOL-Net/internal/observability"
	"github.com/Cristi-la/EOL-Net/internal/ratelimit"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// ThrottleMiddleware counts every request against the budget of its throttle class.
// It runs after credential verification so the class can come from the claims.
// Counter store failures let the request through.
func ThrottleMiddleware(limiter *ratelimit.Limiter, metrics *observability.Metrics, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := ratelimit.Request{Identity: c.IP()}
		if claims, ok := auth.ClaimsFromContext(c); ok {
			req.Credentialed = true
			req.Scope = claims.ThrottleScope
			if claims.UserID != "" {
				req.Identity = "user:" + claims.UserID
			}
		}

		decision, err := limiter.Check(c.UserContext(), req)
		if err != nil {
			logger.Warn("throttle check failed, allowing request",
				zap.String("class", decision.Class),
				zap.Error(err))
			return c.Next()
		}
		if !decision.Allowed {
			metrics.RecordThrottled(decision.Class)
			logger.Debug("request throttled",
				zap.String("key", decision.Key),
				zap.Int64("count", decision.Count),
				zap.Int64("limit", decision.Limit),
				zap.Duration("retry_after", decision.RetryAfter))
			return apperrors.NewRateLimited(decision.RetryAfter)
		}
		return c.Next()
	}
}
