package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/taskdesk/task-system/internal/api/handler"
	"github.com/taskdesk/task-system/internal/api/middleware"
	"github.com/taskdesk/task-system/internal/core/domain"
	"github.com/taskdesk/task-system/internal/core/ports"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Auth      ports.AuthService
	Tasks     ports.TaskService
	Readiness *handler.HealthDependenciesHandler
	Logger    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)
	e.Validator = handler.NewValidator()

	// HTTP metrics live in their own registry so several routers can coexist
	// in one process.
	httpMetrics := prometheus.NewRegistry()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: httpMetrics,
	}))

	// --- Operational routes (no auth required) ---
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		prometheus.Gatherers{httpMetrics, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness)
	}

	authn := middleware.Auth(deps.Auth)
	anyRole := middleware.RBAC(domain.RoleStaff, domain.RoleAdmin)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/register", authHandler.Register, authn, adminOnly)
	auth.GET("/me", authHandler.Me, authn, anyRole)

	// --- Task routes ---
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	tasks := e.Group("/tasks", authn)
	tasks.POST("", taskHandler.Create, anyRole)
	tasks.GET("", taskHandler.ListMine, anyRole)
	tasks.GET("/all", taskHandler.ListAll, adminOnly)
	tasks.GET("/:id", taskHandler.Get, anyRole)
	tasks.PUT("/:id", taskHandler.Update, anyRole)
	tasks.PATCH("/:id", taskHandler.MarkDone, anyRole)
	tasks.DELETE("/:id", taskHandler.Delete, anyRole)

	return e
}

// requestLogger logs one zerolog entry per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
