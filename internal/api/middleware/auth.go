package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/threadworks/order-tracking/internal/api/metrics"
	"github.com/threadworks/order-tracking/internal/core/domain"
	"github.com/threadworks/order-tracking/internal/core/ports"
)

// Context keys set by Auth.
const (
	IdentityKey = "identity"
	UserIDKey   = "user_id"
	RoleKey     = "role"
)

// AccessCookie is the cookie the access token travels in.
const AccessCookie = "accessToken"

// TokenVerifier validates an access token and returns its identity.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*domain.Identity, error)
}

type authOptions struct {
	checker ports.SessionChecker
	log     zerolog.Logger
}

// AuthOption customises the Auth middleware.
type AuthOption func(*authOptions)

// WithSessionCheck makes Auth confirm the account still holds a live session
// on every request. Without it a valid token is accepted until it expires.
func WithSessionCheck(checker ports.SessionChecker) AuthOption {
	return func(o *authOptions) { o.checker = checker }
}

func WithLogger(log zerolog.Logger) AuthOption {
	return func(o *authOptions) { o.log = log }
}

// Auth validates the access token and injects the identity into context.
// The token is read from the accessToken cookie, then from a Bearer
// Authorization header.
func Auth(verifier TokenVerifier, opts ...AuthOption) echo.MiddlewareFunc {
	o := authOptions{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := accessToken(c)
			if token == "" {
				return deny(domain.ReasonMissing, "authentication required")
			}

			identity, err := verifier.VerifyAccessToken(token)
			if err != nil {
				if errors.Is(err, domain.ErrExpiredToken) {
					return deny(domain.ReasonExpired, "access token expired")
				}
				return deny(domain.ReasonInvalid, "invalid access token")
			}

			if o.checker != nil {
				active, err := o.checker.CheckSession(c.Request().Context(), identity.ID)
				if err != nil {
					// Fail closed: an unverifiable session is treated as revoked.
					o.log.Error().Err(err).Str("user_id", identity.ID).Msg("session check failed")
					return deny(domain.ReasonRevoked, "session could not be verified")
				}
				if !active {
					return deny(domain.ReasonRevoked, "session has been revoked")
				}
			}

			c.Set(IdentityKey, *identity)
			c.Set(UserIDKey, identity.ID)
			c.Set(RoleKey, string(identity.Role))

			return next(c)
		}
	}
}

// IdentityFrom returns the identity attached by Auth.
func IdentityFrom(c echo.Context) (domain.Identity, bool) {
	identity, ok := c.Get(IdentityKey).(domain.Identity)
	if !ok || identity.ID == "" {
		return domain.Identity{}, false
	}
	return identity, true
}

func accessToken(c echo.Context) string {
	if cookie, err := c.Cookie(AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func deny(reason, message string) error {
	metrics.GuardRejectionsTotal.WithLabelValues(reason).Inc()
	return domain.NewGuardError(reason, message)
}
