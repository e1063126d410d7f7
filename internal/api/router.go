package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/threadworks/order-tracking/docs"
	"github.com/threadworks/order-tracking/internal/api/handler"
	"github.com/threadworks/order-tracking/internal/api/middleware"
	"github.com/threadworks/order-tracking/internal/core/domain"
	"github.com/threadworks/order-tracking/internal/core/ports"
)

// Dependencies wires the router to the session core and its backing services.
type Dependencies struct {
	Sessions ports.SessionService
	Tokens   middleware.TokenVerifier
	// Checker enables strict session checking on guarded routes when set.
	Checker ports.SessionChecker
	Audit   handler.AuditSink
	Cookies handler.CookiePolicy
	Checks  map[string]handler.DependencyCheck
	Log     zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("order_tracking"))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(deps.Sessions, deps.Cookies, deps.Audit)
	adminHandler := handler.NewAdminHandler()

	guardOpts := []middleware.AuthOption{middleware.WithLogger(deps.Log)}
	if deps.Checker != nil {
		guardOpts = append(guardOpts, middleware.WithSessionCheck(deps.Checker))
	}
	authMiddleware := middleware.Auth(deps.Tokens, guardOpts...)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/refresh-token", authHandler.Refresh)
	auth.GET("/me", authHandler.Me, authMiddleware)

	// --- Admin routes ---
	admin := e.Group("/api/admin", authMiddleware, middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/secret", adminHandler.Secret)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks)

	e.GET("/health", healthHandler.Liveness)           // liveness: is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness: are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
