// Package internalapi provides HTTP handlers for callbacks from the
// ingestion backend. These APIs are only reachable on the internal port.
package internalapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/supportiq/internal/service"
)

// SecretHeader carries the shared secret on internal calls.
const SecretHeader = "x-internal-secret"

// Handler handles internal HTTP requests.
type Handler struct {
	service  *service.Service
	secret   string
	validate *validator.Validate
}

// NewHandler creates a new internal API handler.
func NewHandler(service *service.Service, secret string) *Handler {
	return &Handler{
		service:  service,
		secret:   secret,
		validate: validator.New(),
	}
}

// RegisterRoutes registers internal routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/internal", h.requireSecret)

	// Ingestion callbacks
	g.POST("/document-status", h.UpdateDocumentStatus)
}

func (h *Handler) requireSecret(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		got := c.Request().Header.Get(SecretHeader)
		if h.secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden"})
		}
		return next(c)
	}
}
