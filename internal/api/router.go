package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/user-management/docs"
	"github.com/99minutos/user-management/internal/api/handler"
)

const metricsSubsystem = "http"

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Users  *handler.UserHandler
	Health *handler.HealthHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
// Request metrics are recorded on reg and exposed at /metrics.
func NewRouter(log zerolog.Logger, reg *prometheus.Registry, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints ---
	e.GET("/", handler.Welcome)
	e.GET("/health", h.Health.Liveness)        // liveness: is the process alive?
	e.GET("/health/ready", h.Health.Readiness) // readiness: are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- User routes ---
	e.POST("/user", h.Users.Create)
	e.GET("/user", h.Users.List)
	e.GET("/user/:id", h.Users.GetByID)
	e.GET("/users", h.Users.GetByName)
	e.PUT("/user/update/:id", h.Users.UpdateByID)
	e.PUT("/user/update", h.Users.UpdateByName)
	e.DELETE("/user/delete/:id", h.Users.DeleteByID)
	e.DELETE("/user/delete", h.Users.DeleteByName)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
