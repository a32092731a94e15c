// Package v1 provides the public HTTP handlers of the chat relay.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xiaot623/supportiq/internal/hub"
	"github.com/xiaot623/supportiq/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service   *service.Service
	operators *hub.Server
	gatherer  prometheus.Gatherer
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewHandler creates a new handler. operators and gatherer are optional;
// their routes are only registered when set.
func NewHandler(service *service.Service, operators *hub.Server, gatherer prometheus.Gatherer, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		operators: operators,
		gatherer:  gatherer,
		validate:  validator.New(),
		logger:    logger.With("component", "http"),
	}
}

// RegisterRoutes registers external routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Widget API
	e.POST("/chat", h.Chat)
	e.GET("/v1/chatbots/:bot_id", h.GetChatbot)
	e.GET("/v1/sessions/:session_id/messages", h.GetSessionMessages)

	if h.operators != nil {
		e.GET("/v1/operators/ws", h.operators.HandleWebSocket)
	}
	if h.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
