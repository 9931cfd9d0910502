package notify

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"air24-backend/internal/model"
	"air24-backend/pkg/logger"
	"air24-backend/pkg/metrics"
)

// statusMessages maps an extracted status to the push title.
var statusMessages = map[string]string{
	model.StatusApproved:  "Great news! Your claim has been approved",
	model.StatusRejected:  "Your claim was rejected",
	model.StatusPending:   "Your claim is being reviewed",
	model.StatusNeedsInfo: "Action required: Additional information needed",
}

const fallbackTitle = "Claim Update"

// PushMessage addresses one device.
type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// PushClient delivers a message to a device token.
type PushClient interface {
	Send(ctx context.Context, msg PushMessage) error
}

// TokenStore resolves a user's device token; empty means none on file.
type TokenStore interface {
	DeviceToken(ctx context.Context, userID string) (string, error)
}

// Notifier composes user-facing copy for a claim update and dispatches it.
// Every failure path is logged and swallowed: notification delivery never
// changes the response of the ingestion request.
type Notifier struct {
	tokens TokenStore
	push   PushClient
	log    *zap.Logger
	now    func() time.Time
}

func NewNotifier(tokens TokenStore, push PushClient, log *zap.Logger) *Notifier {
	return &Notifier{tokens: tokens, push: push, log: log, now: time.Now}
}

func (n *Notifier) NotifyClaimUpdate(ctx context.Context, claim model.Claim, parsed model.ExtractedStatus) {
	log := logger.WithTrace(ctx, n.log).With(
		zap.String("claim_id", claim.ClaimID),
		zap.String("user_id", claim.UserID),
	)

	if claim.UserID == "" {
		log.Warn("Claim has no owner, skipping notification")
		metrics.IncrementNotification("skipped")
		return
	}

	token, err := n.tokens.DeviceToken(ctx, claim.UserID)
	if err != nil {
		log.Error("Failed to look up device token", zap.Error(err))
		metrics.IncrementNotification("failed")
		return
	}
	if token == "" {
		// No token on file is a normal state, not an error.
		log.Info("No device token for user, skipping notification")
		metrics.IncrementNotification("skipped")
		return
	}

	msg := composeMessage(token, claim, parsed, n.now())
	if err := n.push.Send(ctx, msg); err != nil {
		log.Error("Push notification failed", zap.Error(err))
		metrics.IncrementNotification("failed")
		return
	}

	log.Info("Push notification sent", zap.String("status", parsed.Status))
	metrics.IncrementNotification("sent")
}

func composeMessage(token string, claim model.Claim, parsed model.ExtractedStatus, now time.Time) PushMessage {
	title, ok := statusMessages[parsed.Status]
	if !ok {
		title = fallbackTitle
	}

	body := "Claim " + claim.ClaimID + " status updated. Tap to view details."
	if parsed.CompensationAmount != nil {
		amount := strconv.FormatFloat(*parsed.CompensationAmount, 'f', -1, 64)
		body = "Claim " + claim.ClaimID + ": " + amount + " compensation"
	}

	return PushMessage{
		Token: token,
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":      "claim_update",
			"claimId":   claim.ClaimID,
			"status":    parsed.Status,
			"timestamp": now.UTC().Format(time.RFC3339),
		},
	}
}
