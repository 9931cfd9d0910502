package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"air24-backend/internal/llm"
	"air24-backend/internal/model"
	"air24-backend/internal/service/ingest"
	"air24-backend/pkg/logger"
	"air24-backend/pkg/util"
)

// Processor runs the ingestion pipeline for one decoded email.
type Processor interface {
	ProcessInbound(ctx context.Context, email model.InboundEmail) (ingest.Outcome, error)
}

type IngestHandler struct {
	processor Processor
	log       *zap.Logger
}

func NewIngestHandler(processor Processor, log *zap.Logger) *IngestHandler {
	return &IngestHandler{processor: processor, log: log}
}

// IngestEmail handles POST /email/ingest. Any handled outcome, including an
// unmatched or unknown claim, responds 200: the forwarder must not retry
// emails this service has already dealt with.
func (h *IngestHandler) IngestEmail(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.WithTrace(ctx, h.log)

	email, err := DecodeInboundEmail(c)
	if err != nil {
		log.Warn("Rejected inbound email", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	_, err = h.processor.ProcessInbound(ctx, email)
	if err != nil {
		status, reason := statusForError(err)
		if status >= http.StatusInternalServerError {
			log.Error("Email processing failed", zap.Error(err))
		} else {
			log.Warn("Email rejected", zap.Error(err))
		}
		c.JSON(status, gin.H{"error": reason})
		return
	}

	c.String(http.StatusOK, "Email processed successfully")
}

// statusForError maps every pipeline failure to a deterministic status and a
// short machine-readable reason.
func statusForError(err error) (int, string) {
	var vErr *ingest.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, vErr.Error()
	}
	if errors.Is(err, ingest.ErrRateLimited) {
		return http.StatusTooManyRequests, "rate limit exceeded"
	}
	if errors.Is(err, ingest.ErrUnparseable) {
		return http.StatusInternalServerError, "AI response unparseable"
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch status := apiErr.HTTPStatus(); {
		case status == http.StatusTooManyRequests:
			return http.StatusTooManyRequests, "provider rate limited"
		case status >= 500:
			return http.StatusServiceUnavailable, "provider unavailable"
		default:
			// 400/401: the request itself is broken, misconfiguration on
			// our side rather than the client's.
			return http.StatusInternalServerError, "provider rejected request"
		}
	}

	// Transport-level failures that survived the retry policy.
	if retryable, _ := util.IsRetryableError(err); retryable {
		return http.StatusServiceUnavailable, "provider unavailable"
	}

	return http.StatusInternalServerError, "internal error"
}
