package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/threadworks/order-tracking/internal/api/metrics"
	"github.com/threadworks/order-tracking/internal/core/domain"
)

// RequireRole enforces role-based access control. It must run after Auth.
func RequireRole(roles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return deny(domain.ReasonMissing, "authentication required")
			}
			if _, ok := allowed[identity.Role]; !ok {
				metrics.GuardRejectionsTotal.WithLabelValues("forbidden").Inc()
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
