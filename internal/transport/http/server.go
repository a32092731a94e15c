// Package http provides the HTTP servers of the chat relay.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xiaot623/supportiq/internal/hub"
	"github.com/xiaot623/supportiq/internal/service"
	"github.com/xiaot623/supportiq/internal/transport/http/internalapi"
	v1 "github.com/xiaot623/supportiq/internal/transport/http/v1"
)

// NewExternalServer creates and configures the public HTTP server.
// This server handles the widget chat stream, widget lookups, the operator
// feed and metrics.
func NewExternalServer(svc *service.Service, operators *hub.Server, gatherer prometheus.Gatherer, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType},
		ExposeHeaders: []string{"X-Session-Id"},
	}))

	// Handlers
	v1Handler := v1.NewHandler(svc, operators, gatherer, logger)

	// Register Routes
	v1Handler.RegisterRoutes(e)

	return e
}

// NewInternalServer creates and configures the internal HTTP server.
// This server handles callbacks from the ingestion backend.
func NewInternalServer(svc *service.Service, secret string, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())

	// Handlers
	internalHandler := internalapi.NewHandler(svc, secret)

	// Register Routes
	internalHandler.RegisterRoutes(e)

	return e
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	logger = logger.With("component", "http")
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				logger.LogAttrs(context.Background(), slog.LevelError, "request failed", attrs...)
				return nil
			}
			logger.LogAttrs(context.Background(), slog.LevelInfo, "request", attrs...)
			return nil
		},
	})
}
