package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// AdminHandler serves admin-only resources.
type AdminHandler struct{}

func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// Secret is a probe for the admin role guard.
//
// @Summary      Admin-only probe
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /api/admin/secret [get]
func (h *AdminHandler) Secret(c echo.Context) error {
	identity, err := identityFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{
		Success: true,
		Message: fmt.Sprintf("welcome, %s", identity.Name),
	})
}
