package router

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"bizdesk/internal/auth"
	"bizdesk/internal/config"
	"bizdesk/internal/handler"
	"bizdesk/internal/service"
)

// multipart framing on top of MAX_UPLOAD_BYTES
const bodyLimitSlack = 1 << 20

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth    *handler.AuthHandler
	User    *handler.UserHandler
	Crm     *handler.CrmHandler
	Invoice *handler.InvoiceHandler
	File    *handler.FileHandler
}

// Dependencies are the collaborators the middleware stack needs.
type Dependencies struct {
	AuthService service.AuthService
	// Tokens verifies bearer tokens on secured routes.
	Tokens *auth.JWTService
	// Redis backs the auth rate limiter; nil disables it.
	Redis *redis.Client
	// Ready reports whether the service can take traffic (/readyz).
	Ready  func(ctx context.Context) error
	Logger zerolog.Logger
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, deps Dependencies, h Handlers) {
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dK", (cfg.Storage.MaxUploadBytes+bodyLimitSlack)/1024)))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/readyz", readiness(deps.Ready, deps.Logger))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if cfg.Storage.Backend == "local" {
		e.Static(cfg.Storage.MediaURL, cfg.Storage.MediaRoot)
	}

	api := e.Group("/api")

	// Public routes
	limited := api.Group("", NewRateLimiter(deps.Redis, cfg.Auth.RateLimit, deps.Logger).Middleware())
	limited.POST("/register", h.Auth.Register)
	limited.POST("/login", h.Auth.Login)
	limited.POST("/password-reset", h.Auth.RequestPasswordReset)
	limited.POST("/password-reset-confirm", h.Auth.ConfirmPasswordReset)

	// Secured routes (bearer token resolved against the token store)
	secured := api.Group("", bearerAuth(deps.Tokens), session(deps.AuthService))
	secured.POST("/logout", h.Auth.Logout)

	secured.GET("/users/me", h.User.GetMe)
	secured.PATCH("/users/me", h.User.UpdateMe)
	secured.PUT("/users/me/photo", h.User.UploadPhoto)

	secured.GET("/crm", h.Crm.List)
	secured.POST("/crm", h.Crm.Create)
	secured.GET("/crm/status_by_day", h.Crm.StatusByDay)
	secured.GET("/crm/:id", h.Crm.Get)
	secured.PATCH("/crm/:id", h.Crm.Patch)
	secured.PUT("/crm/:id", h.Crm.Replace)
	secured.DELETE("/crm/:id", h.Crm.Delete)

	secured.GET("/invoices", h.Invoice.List)
	secured.POST("/invoices", h.Invoice.Create)
	secured.GET("/invoices/search", h.Invoice.Search)
	secured.GET("/invoices/stats", h.Invoice.Stats)
	secured.GET("/invoices/:id", h.Invoice.Get)
	secured.PATCH("/invoices/:id", h.Invoice.Update)
	secured.PUT("/invoices/:id", h.Invoice.Update)
	secured.DELETE("/invoices/:id", h.Invoice.Delete)
	secured.POST("/invoices/:id/mark_as_paid", h.Invoice.MarkAsPaid)
	secured.POST("/invoices/:id/mark_as_sent", h.Invoice.MarkAsSent)

	secured.GET("/files", h.File.List)
	secured.POST("/files", h.File.Upload)
	secured.GET("/files/photos", h.File.ListPhotos)
	secured.GET("/files/videos", h.File.ListVideos)
	secured.GET("/files/:id", h.File.Get)
	secured.DELETE("/files/:id", h.File.Delete)
}

func readiness(check func(ctx context.Context) error, log zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if check != nil {
			if err := check(c.Request().Context()); err != nil {
				log.Warn().Err(err).Msg("readiness check failed")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	}
}
