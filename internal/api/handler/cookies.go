package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/threadworks/order-tracking/internal/api/middleware"
	"github.com/threadworks/order-tracking/internal/core/domain"
)

// RefreshCookie is the cookie the refresh token travels in.
const RefreshCookie = "refreshToken"

// CookiePolicy decides the attributes of the session cookies.
type CookiePolicy struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewCookiePolicy returns the policy for the given environment. Production
// cookies are Secure and SameSite=None; everything else is Lax.
func NewCookiePolicy(production bool, accessTTL, refreshTTL time.Duration) CookiePolicy {
	return CookiePolicy{Secure: production, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

func (p CookiePolicy) sameSite() http.SameSite {
	if p.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (p CookiePolicy) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.sameSite(),
	}
}

// SetSession writes both token cookies.
func (p CookiePolicy) SetSession(c echo.Context, tokens domain.TokenPair) {
	c.SetCookie(p.cookie(middleware.AccessCookie, tokens.AccessToken, int(p.AccessTTL.Seconds())))
	c.SetCookie(p.cookie(RefreshCookie, tokens.RefreshToken, int(p.RefreshTTL.Seconds())))
}

// Clear expires both token cookies.
func (p CookiePolicy) Clear(c echo.Context) {
	c.SetCookie(p.cookie(middleware.AccessCookie, "", -1))
	c.SetCookie(p.cookie(RefreshCookie, "", -1))
}
