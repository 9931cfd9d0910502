package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontracts "air24-backend/contracts/mq"
	"air24-backend/internal/model"
	"air24-backend/internal/service/extract"
	"air24-backend/pkg/logger"
	"air24-backend/pkg/metrics"
	"air24-backend/pkg/util"
)

// Outcome distinguishes the degraded-but-successful results from a true
// update, so callers cannot mistake one for the other.
type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeClaimNotFound
	OutcomeUnmatched
)

const unmatchedReason = "No claim_id found"

// ErrUnparseable means the LLM answered but produced no JSON object after
// both parse attempts.
var ErrUnparseable = errors.New("llm response unparseable")

// ErrRateLimited means the sender exceeded the inbound window.
var ErrRateLimited = errors.New("sender rate limit exceeded")

// ValidationError carries every filter violation.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "invalid email: " + strings.Join(e.Violations, "; ")
}

// Extractor is the LLM-backed status extractor.
type Extractor interface {
	Extract(ctx context.Context, subject, text string) (extract.Result, error)
}

// ClaimStore finds a claim by its identifier and merges new status fields
// into it, preserving everything not listed.
type ClaimStore interface {
	FindByClaimID(ctx context.Context, claimID string) (*model.Claim, error)
	MergeStatus(ctx context.Context, id int64, status string, now time.Time, resp model.AirlineResponse) error
}

// UnmatchedStore appends inbound emails that resolved to no claim.
type UnmatchedStore interface {
	Append(ctx context.Context, rec model.UnmatchedEmail) error
}

// Notifier dispatches a claim-update push. It never returns an error: a
// delivery failure must not alter the response already computed for the
// ingestion request.
type Notifier interface {
	NotifyClaimUpdate(ctx context.Context, claim model.Claim, parsed model.ExtractedStatus)
}

// EventPublisher mirrors pkg/mq.Publisher.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// Service runs the ingestion pipeline for one decoded inbound email.
type Service struct {
	extractor Extractor
	claims    ClaimStore
	unmatched UnmatchedStore
	notifier  Notifier
	publisher EventPublisher
	limiter   *util.SenderLimiter
	retry     util.RetryOptions
	log       *zap.Logger
	now       func() time.Time
}

func NewService(
	extractor Extractor,
	claims ClaimStore,
	unmatched UnmatchedStore,
	notifier Notifier,
	publisher EventPublisher,
	limiter *util.SenderLimiter,
	log *zap.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		claims:    claims,
		unmatched: unmatched,
		notifier:  notifier,
		publisher: publisher,
		limiter:   limiter,
		retry:     util.DefaultRetryOptions(),
		log:       log,
		now:       time.Now,
	}
}

// ProcessInbound runs decode-validated email through filter, extraction,
// claim merge and notification. Each email yields at most one claim mutation
// and at most one notification.
func (s *Service) ProcessInbound(ctx context.Context, email model.InboundEmail) (Outcome, error) {
	log := logger.WithTrace(ctx, s.log).With(zap.String("from", email.From))

	if result := ValidateInbound(email.From, email.Subject, email.Text); !result.IsValid {
		metrics.IncrementEmailProcessed("rejected")
		return 0, &ValidationError{Violations: result.Errors}
	}

	allowed, err := s.limiter.Allow(ctx, email.From)
	if err != nil {
		// Limiter outage must not drop legitimate airline replies.
		log.Warn("Sender rate limiter unavailable, allowing", zap.Error(err))
	} else if !allowed {
		metrics.IncrementEmailProcessed("rejected")
		return 0, ErrRateLimited
	}

	var result extract.Result
	attempt := 0
	err = util.WithBackoff(ctx, log, func() error {
		attempt++
		if attempt > 1 {
			metrics.LLMRetryCount.Inc()
		}
		var callErr error
		result, callErr = s.extractor.Extract(ctx, email.Subject, email.Text)
		return callErr
	}, s.retry)
	if err != nil {
		metrics.IncrementEmailProcessed("failed")
		return 0, err
	}

	if result.Unparseable {
		metrics.IncrementEmailProcessed("failed")
		return 0, ErrUnparseable
	}
	parsed := result.Parsed

	if parsed.ClaimID == nil || *parsed.ClaimID == "" {
		rec := model.UnmatchedEmail{
			FromAddr:   email.From,
			ToAddr:     email.To,
			Subject:    email.Subject,
			Body:       email.Text,
			Reason:     unmatchedReason,
			ReceivedAt: s.now(),
		}
		if err := s.unmatched.Append(ctx, rec); err != nil {
			metrics.IncrementEmailProcessed("failed")
			return 0, err
		}
		log.Warn("No claim_id found in email, recorded for triage")
		metrics.IncrementEmailProcessed("unmatched")
		return OutcomeUnmatched, nil
	}

	claim, err := s.claims.FindByClaimID(ctx, *parsed.ClaimID)
	if err != nil {
		metrics.IncrementEmailProcessed("failed")
		return 0, err
	}
	if claim == nil {
		// Cannot distinguish "claim not yet created" from bad data, so this
		// is a warning, not a retryable failure.
		log.Warn("Claim not found", zap.String("claim_id", *parsed.ClaimID))
		metrics.IncrementEmailProcessed("claim_not_found")
		return OutcomeClaimNotFound, nil
	}

	now := s.now()
	resp := model.AirlineResponse{
		ReceivedAt: now,
		From:       email.From,
		Subject:    email.Subject,
		ParsedData: parsed,
	}
	if err := s.claims.MergeStatus(ctx, claim.ID, parsed.Status, now, resp); err != nil {
		metrics.IncrementEmailProcessed("failed")
		return 0, err
	}
	log.Info("Claim updated",
		zap.String("claim_id", claim.ClaimID),
		zap.String("status", parsed.Status),
	)

	if s.publisher != nil {
		payload := mqcontracts.ClaimUpdatedPayload{
			ClaimID:   claim.ClaimID,
			UserID:    claim.UserID,
			Status:    parsed.Status,
			UpdatedAt: now,
		}
		if err := s.publisher.Publish(mqcontracts.RoutingKeyClaimUpdated, payload); err != nil {
			log.Warn("Failed to publish claim.updated event", zap.Error(err))
		}
	}

	s.notifier.NotifyClaimUpdate(ctx, *claim, parsed)

	metrics.IncrementEmailProcessed("updated")
	return OutcomeUpdated, nil
}
