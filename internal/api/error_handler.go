package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/threadworks/order-tracking/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message"`
}

var kindStatus = map[string]int{
	domain.KindValidation:      http.StatusBadRequest,
	domain.KindConflict:        http.StatusConflict,
	domain.KindNotFound:        http.StatusNotFound,
	domain.KindAuthentication:  http.StatusUnauthorized,
	domain.KindUnauthenticated: http.StatusUnauthorized,
	domain.KindInvalidToken:    http.StatusForbidden,
	domain.KindForbidden:       http.StatusForbidden,
	domain.KindInternal:        http.StatusInternalServerError,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their kind and HTTP status code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"success": false, "error": "<kind>", "message": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (router 404/405, body too large, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{
			Error:   kindForStatus(he.Code),
			Message: fmt.Sprintf("%v", he.Message),
		}
	}

	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		// Unexpected error: log the real cause, return a generic message.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return http.StatusInternalServerError, errorResponse{Error: kind, Message: "internal server error"}
	}

	resp := errorResponse{Error: kind, Message: err.Error()}
	var ge *domain.GuardError
	if errors.As(err, &ge) {
		resp.Reason = ge.Reason
	}
	return kindStatus[kind], resp
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return domain.KindValidation
	case http.StatusUnauthorized:
		return domain.KindUnauthenticated
	case http.StatusForbidden:
		return domain.KindForbidden
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusConflict:
		return domain.KindConflict
	}
	if code >= http.StatusInternalServerError {
		return domain.KindInternal
	}
	return http.StatusText(code)
}
