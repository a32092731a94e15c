package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/supportiq/internal/domain"
	"github.com/xiaot623/supportiq/internal/service"
	"github.com/xiaot623/supportiq/internal/stream"
)

// Chat runs one chat turn and streams the reply as server-sent events.
// POST /chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": service.ErrInvalidRequest.Error()})
	}

	ctx := c.Request().Context()
	turn, err := h.service.PrepareTurn(ctx, &req)
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrChatbotNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Chatbot not found or inactive"})
	case err != nil:
		h.logger.Error("failed to prepare chat turn", "bot_id", req.BotID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}

	res := c.Response()
	w, err := stream.NewSSEWriter(res)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
	}
	stream.SetHeaders(res.Header(), turn.Session.SessionID)
	res.WriteHeader(http.StatusOK)
	res.Flush()

	h.service.StreamReply(ctx, turn, w)
	return nil
}
