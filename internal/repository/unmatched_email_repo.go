package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"air24-backend/internal/model"
	"air24-backend/pkg/metrics"
)

// UnmatchedEmailRepository is append-only: records are written for manual
// triage and never mutated or deleted by this service.
type UnmatchedEmailRepository struct {
	db *pgxpool.Pool
}

func NewUnmatchedEmailRepository(db *pgxpool.Pool) *UnmatchedEmailRepository {
	return &UnmatchedEmailRepository{db: db}
}

// Append 插入一条未匹配邮件记录
func (r *UnmatchedEmailRepository) Append(ctx context.Context, rec model.UnmatchedEmail) error {
	start := time.Now()
	defer func() { metrics.RecordDBQueryDuration("insert", "unmatched_emails", time.Since(start)) }()

	query := `
        INSERT INTO unmatched_emails (from_addr, to_addr, subject, body, reason, received_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := r.db.Exec(ctx, query, rec.FromAddr, rec.ToAddr, rec.Subject, rec.Body, rec.Reason, rec.ReceivedAt)
	return err
}
