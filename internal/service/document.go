package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xiaot623/supportiq/internal/domain"
)

// UpdateDocumentStatus applies an ingestion callback. The ingestion backend
// may report before the document row is committed, so a missing document is
// retried; skipped is true when it never appeared.
func (s *Service) UpdateDocumentStatus(ctx context.Context, req *domain.DocumentStatusRequest) (doc *domain.Document, skipped bool, err error) {
	if !req.Status.Valid() {
		return nil, false, domain.ErrInvalidStatus
	}

	attempts := s.config.DocumentRetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		doc, err = s.store.UpdateDocumentStatus(ctx, req.DocumentID, req.Status, req.ChunkCount)
		if err == nil {
			s.metrics.DocumentUpdatesTotal.WithLabelValues("updated").Inc()
			return doc, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.metrics.DocumentUpdatesTotal.WithLabelValues("failed").Inc()
			return nil, false, fmt.Errorf("failed to update document: %w", err)
		}
		if attempt == attempts {
			break
		}

		s.logger.Debug("document not found yet, retrying", "document_id", req.DocumentID, "attempt", attempt)
		select {
		case <-time.After(s.config.DocumentRetryDelay):
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}

	s.metrics.DocumentUpdatesTotal.WithLabelValues("skipped").Inc()
	s.logger.Warn("document status callback for unknown document", "document_id", req.DocumentID, "attempts", attempts)
	return nil, true, nil
}
