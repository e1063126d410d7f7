package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/threadworks/order-tracking/internal/api/middleware"
	"github.com/threadworks/order-tracking/internal/core/domain"
)

// identityFrom fails fast when the Auth middleware did not run.
func identityFrom(c echo.Context) (domain.Identity, error) {
	identity, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.NewGuardError(domain.ReasonMissing, "authentication required")
	}
	return identity, nil
}

// auditEvent stamps an event with the caller's network details.
func auditEvent(c echo.Context, typ domain.AuthEventType, accountID, email string) domain.AuthEvent {
	return domain.AuthEvent{
		AccountID: accountID,
		Email:     email,
		Type:      typ,
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
