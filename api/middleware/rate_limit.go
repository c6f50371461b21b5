package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/shopfront/retail-backend/api/responses"
	"github.com/shopfront/retail-backend/pkg/config"
	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
	"github.com/shopfront/retail-backend/pkg/logger"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles every request in one-second fixed windows: anonymous
// callers per client IP, authenticated callers per user id. It must run after
// OptionalAuth or Auth to see the identity.
func RateLimit(cfg config.RateLimitConfig, limiter windowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope, limit := "anon:"+clientIP(r), cfg.AnonPerSecond
			if userID := UserIDFromContext(ctx); userID != "" {
				scope, limit = "user:"+userID, cfg.UserPerSecond
			}
			if limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), time.Second)
			if err != nil {
				// fail open when redis is unavailable
				if logg != nil {
					logg.Warn(ctx, "rate limit check failed; allowing request")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"scope": scope, "attempts": count, "limit": limit}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", "1")
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
