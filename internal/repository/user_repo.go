package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"air24-backend/pkg/metrics"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// DeviceToken returns the user's FCM token, or "" when the user is unknown
// or has no token on file. Both are normal states for the notifier.
func (r *UserRepository) DeviceToken(ctx context.Context, userID string) (string, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("select", "users", time.Since(start)) }()

	query := `SELECT COALESCE(fcm_token, '') FROM users WHERE id = $1`
	var token string
	err := r.db.QueryRow(ctx, query, userID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}
