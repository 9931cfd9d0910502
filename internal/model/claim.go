package model

import "time"

// Claim statuses an airline reply can carry.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusNeedsInfo = "needs_info"
)

func IsKnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsInfo:
		return true
	}
	return false
}

// ExtractedStatus is the structured result of one LLM extraction. Nullable
// fields stay pointers; the extractor guarantees Status is never empty and
// Reason is never nil before the value reaches the claim updater.
type ExtractedStatus struct {
	ClaimID            *string  `json:"claim_id"`
	Status             string   `json:"status"`
	Airline            *string  `json:"airline"`
	CompensationAmount *float64 `json:"compensation_amount"`
	Reason             *string  `json:"reason"`
	NextSteps          *string  `json:"next_steps"`
}

// AirlineResponse is the nested record merged into a claim when a reply is
// processed. Stored as JSONB.
type AirlineResponse struct {
	ReceivedAt time.Time       `json:"receivedAt"`
	From       string          `json:"from"`
	Subject    string          `json:"subject"`
	ParsedData ExtractedStatus `json:"parsedData"`
}

type Claim struct {
	ID              int64
	ClaimID         string
	UserID          string
	FlightNumber    string
	Status          string
	AirlineResponse *AirlineResponse
	LastUpdated     time.Time
	CreatedAt       time.Time
}

// UnmatchedEmail is an append-only triage record for inbound emails whose
// claim could not be resolved.
type UnmatchedEmail struct {
	ID         int64
	FromAddr   string
	ToAddr     string
	Subject    string
	Body       string
	Reason     string
	ReceivedAt time.Time
}
