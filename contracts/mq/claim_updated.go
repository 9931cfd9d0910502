package mq

import "time"

// RoutingKeyClaimUpdated is published after a claim merge succeeds.
const RoutingKeyClaimUpdated = "claim.updated"

type ClaimUpdatedPayload struct {
	ClaimID   string    `json:"claim_id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
