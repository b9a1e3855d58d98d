package submission

import (
	"context"
	"errors"
	"fmt"

	"ezcode-server/internal/database"
	"ezcode-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const submissionColumns = `
    id::text AS id, reference, user_id, tool_name, website_url, category,
    contact_name, contact_email, payload, payment_method, card_last4,
    amount_paid::float8 AS amount_paid, status, review_note, created_at, updated_at`

const (
	createSubmissionQuery = `
INSERT INTO submissions (reference, user_id, tool_name, website_url, category,
    contact_name, contact_email, payload, payment_method, card_last4, amount_paid, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id::text, created_at, updated_at`

	getSubmissionQuery = `SELECT` + submissionColumns + ` FROM submissions WHERE id = $1`

	listSubmissionsQuery = `SELECT` + submissionColumns + `
FROM submissions
WHERE ($1 = '' OR status = $1)
  AND ($4 = '' OR user_id = $4)
ORDER BY created_at DESC, id
LIMIT $2 OFFSET $3`

	updateStatusQuery = `
UPDATE submissions
SET status = $2, review_note = $3, updated_at = NOW()
WHERE id = $1 AND status = 'under-review'
RETURNING` + submissionColumns
)

// ErrDuplicateReference - номер заявки уже занят.
var ErrDuplicateReference = errors.New("submission reference already exists")

type pgRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

var _ Repository = (*pgRepository)(nil)

func NewPgRepository(db database.DBTX, logger *zap.Logger) Repository {
	return &pgRepository{
		db:     db,
		logger: logger.Named("PgSubmissionRepo"),
	}
}

// Create вставляет заявку и заполняет ID и временные метки.
func (r *pgRepository) Create(ctx context.Context, s *Submission) error {
	err := r.db.QueryRow(ctx, createSubmissionQuery,
		s.Reference, s.UserID, s.ToolName, s.WebsiteURL, s.Category,
		s.ContactName, s.ContactEmail, s.Payload, s.PaymentMethod, s.CardLast4, s.AmountPaid, s.Status,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateReference, s.Reference)
		}
		r.logger.Error("Failed to create submission", zap.String("reference", s.Reference), zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	r.logger.Debug("Submission created", zap.String("id", s.ID), zap.String("reference", s.Reference))
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id string) (*Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	var s Submission
	if err := pgxscan.Get(ctx, r.db, &s, getSubmissionQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get submission", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission %s: %w", id, err)
	}
	return &s, nil
}

func (r *pgRepository) List(ctx context.Context, f ListFilter) ([]Submission, error) {
	f = f.Normalize()
	items := make([]Submission, 0)
	if err := pgxscan.Select(ctx, r.db, &items, listSubmissionsQuery, f.Status, f.Limit, f.Offset, f.UserID); err != nil {
		r.logger.Error("Failed to list submissions", zap.String("status", f.Status), zap.String("userID", f.UserID), zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return items, nil
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id, status, note string) (*Submission, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	var s Submission
	if err := pgxscan.Get(ctx, r.db, &s, updateStatusQuery, id, status, note); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to update submission status", zap.String("id", id), zap.String("status", status), zap.Error(err))
		return nil, fmt.Errorf("failed to update submission %s: %w", id, err)
	}
	return &s, nil
}
