package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"air24-backend/internal/model"
	"air24-backend/pkg/metrics"
)

type ClaimRepository struct {
	db *pgxpool.Pool
}

func NewClaimRepository(db *pgxpool.Pool) *ClaimRepository {
	return &ClaimRepository{db: db}
}

// FindByClaimID returns the first claim matching the identifier, or nil when
// none exists. Duplicates are not deduplicated here; first match wins.
func (r *ClaimRepository) FindByClaimID(ctx context.Context, claimID string) (*model.Claim, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "claims", time.Since(start)) }()

	query := `
        SELECT id, claim_id, user_id, flight_number, status, airline_response, last_updated, created_at
        FROM claims
        WHERE claim_id = $1
        ORDER BY created_at ASC
        LIMIT 1
    `
	var c model.Claim
	var respJSON []byte
	err := r.db.QueryRow(ctx, query, claimID).Scan(
		&c.ID, &c.ClaimID, &c.UserID, &c.FlightNumber, &c.Status, &respJSON, &c.LastUpdated, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(respJSON) > 0 {
		var resp model.AirlineResponse
		if err := json.Unmarshal(respJSON, &resp); err == nil {
			c.AirlineResponse = &resp
		}
	}
	return &c, nil
}

// MergeStatus performs the partial update for one processed airline reply:
// status, last_updated and airline_response change, every other column is
// preserved. GREATEST keeps last_updated from regressing under clock skew.
func (r *ClaimRepository) MergeStatus(ctx context.Context, id int64, status string, now time.Time, resp model.AirlineResponse) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("update", "claims", time.Since(start)) }()

	respJSON, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	query := `
        UPDATE claims
        SET status = $2,
            last_updated = GREATEST(last_updated, $3),
            airline_response = $4
        WHERE id = $1
    `
	_, err = r.db.Exec(ctx, query, id, status, now, respJSON)
	return err
}
