package internalapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/supportiq/internal/domain"
)

// UpdateDocumentStatus records ingestion progress for a document.
// POST /internal/document-status
func (h *Handler) UpdateDocumentStatus(c echo.Context) error {
	var req domain.DocumentStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "documentId and status are required"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}

	doc, skipped, err := h.service.UpdateDocumentStatus(c.Request().Context(), &req)
	if errors.Is(err, domain.ErrInvalidStatus) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update document"})
	}
	if skipped {
		return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "skipped": true})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":     true,
		"id":     doc.ID,
		"status": doc.Status,
	})
}
