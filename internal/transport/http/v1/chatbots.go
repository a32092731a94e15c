package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/supportiq/internal/domain"
)

// GetChatbot returns the widget settings of an active chatbot.
// GET /v1/chatbots/:bot_id
func (h *Handler) GetChatbot(c echo.Context) error {
	cfg, err := h.service.GetWidgetConfig(c.Request().Context(), c.Param("bot_id"))
	if errors.Is(err, domain.ErrChatbotNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Chatbot not found or inactive"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, cfg)
}
