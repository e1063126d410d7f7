package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/threadworks/order-tracking/internal/api/metrics"
	"github.com/threadworks/order-tracking/internal/core/domain"
	"github.com/threadworks/order-tracking/internal/core/ports"
)

// AuditSink is the interface the handler uses to enqueue auth events.
type AuditSink interface {
	Enqueue(event domain.AuthEvent) bool
}

type nopAuditSink struct{}

func (nopAuditSink) Enqueue(domain.AuthEvent) bool { return true }

type AuthHandler struct {
	sessions ports.SessionService
	cookies  CookiePolicy
	audit    AuditSink
}

// NewAuthHandler creates an AuthHandler. A nil audit sink disables the audit
// trail.
func NewAuthHandler(sessions ports.SessionService, cookies CookiePolicy, audit AuditSink) *AuthHandler {
	if audit == nil {
		audit = nopAuditSink{}
	}
	return &AuthHandler{sessions: sessions, cookies: cookies, audit: audit}
}

// Signup creates a new admin or worker account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  signupResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := bindAndValidate(c, &req); err != nil {
		observe("signup", err)
		return err
	}

	account, err := h.sessions.Signup(c.Request().Context(), ports.SignupInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		Role:            req.Role,
		Phone:           req.Phone,
		DOB:             req.DOB,
		Address:         req.Address,
		ProfileImageURL: req.ProfileImageURL,
	})
	observe("signup", err)
	if err != nil {
		return err
	}

	h.audit.Enqueue(auditEvent(c, domain.EventSignup, account.ID, account.Email))

	return c.JSON(http.StatusCreated, signupResponse{
		Success: true,
		Message: fmt.Sprintf("%s registered successfully", account.Role),
		User:    toUserSummary(account),
	})
}

// Login verifies credentials and sets the session cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		observe("login", err)
		return err
	}

	session, err := h.sessions.Login(c.Request().Context(), req.Email, req.Password)
	observe("login", err)
	if err != nil {
		ev := auditEvent(c, domain.EventLoginFailed, "", domain.NormalizeEmail(req.Email))
		ev.Outcome = domain.KindOf(err)
		h.audit.Enqueue(ev)
		return err
	}

	h.cookies.SetSession(c, session.Tokens)
	h.audit.Enqueue(auditEvent(c, domain.EventLogin, session.Account.ID, session.Account.Email))

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Login successful"})
}

// Refresh rotates the refresh token carried in the refreshToken cookie.
//
// @Summary      Refresh the session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/auth/refresh-token [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	session, err := h.sessions.Refresh(c.Request().Context(), refreshToken(c))
	observe("refresh", err)
	if err != nil {
		ev := auditEvent(c, domain.EventRefreshFailed, "", "")
		ev.Outcome = domain.KindOf(err)
		h.audit.Enqueue(ev)
		return err
	}

	h.cookies.SetSession(c, session.Tokens)
	h.audit.Enqueue(auditEvent(c, domain.EventRefresh, session.Account.ID, session.Account.Email))

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Token refreshed"})
}

// Logout revokes the refresh token and clears both cookies. It always
// succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  messageResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := refreshToken(c); token != "" {
		h.sessions.Logout(c.Request().Context(), token)
	}
	observe("logout", nil)

	h.cookies.Clear(c)
	h.audit.Enqueue(auditEvent(c, domain.EventLogout, "", ""))

	return c.JSON(http.StatusOK, messageResponse{Success: true, Message: "Logged out"})
}

// Me returns the profile of the authenticated account.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  meResponse
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}

	account, err := h.sessions.Me(c.Request().Context(), identity)
	observe("me", err)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, meResponse{Success: true, User: account})
}

func refreshToken(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: invalid payload", domain.ErrValidation)
	}
	return c.Validate(req)
}

func observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = domain.KindOf(err)
	}
	metrics.SessionOperationsTotal.WithLabelValues(operation, outcome).Inc()
}
