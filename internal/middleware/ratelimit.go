package middleware

import (
	"fmt"
	"net/http"
	"time"

	"agencyops/internal/caching"
	"agencyops/internal/common"

	"github.com/labstack/echo/v4"
)

// RateLimitMiddleware bounds invoice-send attempts per actor per time window.
type RateLimitMiddleware struct {
	cacheSvc caching.CacheService
	limit    int
	window   time.Duration
}

func NewRateLimitMiddleware(cacheSvc caching.CacheService, limit int, window time.Duration) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		cacheSvc: cacheSvc,
		limit:    limit,
		window:   window,
	}
}

// LimitInvoiceSends returns middleware enforcing the send-attempt limit.
// Redis being unavailable does not block sends; the limiter fails open with a
// warning.
func (m *RateLimitMiddleware) LimitInvoiceSends() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			userID, ok := common.GetUserIDFromContext(ctx)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}

			key := fmt.Sprintf("ratelimit:invoice_send:%s", userID)
			limited, err := m.cacheSvc.IsRateLimited(ctx, key, m.limit, m.window)
			if err != nil {
				c.Logger().Warnf("rate limit check failed, allowing request: %v", err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many send attempts, try again later")
			}

			if err := m.cacheSvc.IncrementRateLimit(ctx, key, m.window); err != nil {
				c.Logger().Warnf("rate limit increment failed: %v", err)
			}

			return next(c)
		}
	}
}
