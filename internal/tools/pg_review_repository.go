package tools

import (
	"context"
	"errors"
	"fmt"
	"math"

	"ezcode-server/internal/database"
	"ezcode-server/internal/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const reviewColumns = `
    id::text AS id, tool_id::text AS tool_id, user_id, author_name, rating::int AS rating,
    title, content, created_at, updated_at`

const (
	listReviewsQuery = `SELECT` + reviewColumns + `
FROM tool_reviews
WHERE tool_id = $1 AND is_approved AND ($2::int = 0 OR rating = $2::int)
ORDER BY %s
LIMIT $3 OFFSET $4`

	summarizeReviewsQuery = `
SELECT rating::int AS rating, COUNT(*)::int AS count
FROM tool_reviews
WHERE tool_id = $1 AND is_approved
GROUP BY rating`

	getReviewQuery = `SELECT` + reviewColumns + ` FROM tool_reviews WHERE id = $1`

	createReviewQuery = `
INSERT INTO tool_reviews (tool_id, user_id, author_name, rating, title, content)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, created_at, updated_at`

	updateReviewQuery = `
UPDATE tool_reviews
SET rating = $2, title = $3, content = $4, author_name = $5, updated_at = NOW()
WHERE id = $1
RETURNING updated_at`

	deleteReviewQuery = `DELETE FROM tool_reviews WHERE id = $1`
)

var reviewOrder = map[string]string{
	ReviewSortNewest:  "created_at DESC, id",
	ReviewSortOldest:  "created_at ASC, id",
	ReviewSortHighest: "rating DESC, created_at DESC, id",
	ReviewSortLowest:  "rating ASC, created_at DESC, id",
}

type pgReviewRepository struct {
	db     database.DBTX
	logger *zap.Logger
}

var _ ReviewRepository = (*pgReviewRepository)(nil)

func NewPgReviewRepository(db database.DBTX, logger *zap.Logger) ReviewRepository {
	return &pgReviewRepository{
		db:     db,
		logger: logger.Named("PgReviewRepo"),
	}
}

func (r *pgReviewRepository) ListReviews(ctx context.Context, toolID string, f ReviewFilter) ([]Review, error) {
	f = f.Normalize()
	reviews := make([]Review, 0)
	if _, err := uuid.Parse(toolID); err != nil {
		return reviews, nil
	}
	query := fmt.Sprintf(listReviewsQuery, reviewOrder[f.Sort])
	if err := pgxscan.Select(ctx, r.db, &reviews, query, toolID, f.Rating, f.Limit, f.Offset); err != nil {
		r.logger.Error("Failed to list reviews", zap.String("toolID", toolID), zap.Any("filter", f), zap.Error(err))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

func (r *pgReviewRepository) SummarizeReviews(ctx context.Context, toolID string) (*ReviewSummary, error) {
	summary := &ReviewSummary{Distribution: make(map[int]int, MaxReviewRating)}
	for rating := MinReviewRating; rating <= MaxReviewRating; rating++ {
		summary.Distribution[rating] = 0
	}
	if _, err := uuid.Parse(toolID); err != nil {
		return summary, nil
	}

	var rows []struct {
		Rating int `db:"rating"`
		Count  int `db:"count"`
	}
	if err := pgxscan.Select(ctx, r.db, &rows, summarizeReviewsQuery, toolID); err != nil {
		r.logger.Error("Failed to summarize reviews", zap.String("toolID", toolID), zap.Error(err))
		return nil, fmt.Errorf("failed to summarize reviews: %w", err)
	}

	total := 0
	for _, row := range rows {
		summary.Distribution[row.Rating] = row.Count
		summary.Count += row.Count
		total += row.Rating * row.Count
	}
	if summary.Count > 0 {
		summary.Average = math.Round(float64(total)/float64(summary.Count)*10) / 10
	}
	return summary, nil
}

func (r *pgReviewRepository) GetReview(ctx context.Context, id string) (*Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	var review Review
	if err := pgxscan.Get(ctx, r.db, &review, getReviewQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get review", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get review %s: %w", id, err)
	}
	return &review, nil
}

// CreateReview заполняет ID и временные метки. Несуществующий инструмент - models.ErrNotFound.
func (r *pgReviewRepository) CreateReview(ctx context.Context, review *Review) error {
	if _, err := uuid.Parse(review.ToolID); err != nil {
		return models.ErrNotFound
	}
	err := r.db.QueryRow(ctx, createReviewQuery,
		review.ToolID, review.UserID, review.AuthorName, review.Rating, review.Title, review.Content,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return ErrDuplicateReview
		case database.IsForeignKeyViolation(err):
			return models.ErrNotFound
		}
		r.logger.Error("Failed to create review", zap.String("toolID", review.ToolID), zap.String("userID", review.UserID), zap.Error(err))
		return fmt.Errorf("failed to create review: %w", err)
	}
	r.logger.Debug("Review created", zap.String("id", review.ID), zap.String("toolID", review.ToolID))
	return nil
}

func (r *pgReviewRepository) UpdateReview(ctx context.Context, review *Review) error {
	if _, err := uuid.Parse(review.ID); err != nil {
		return models.ErrNotFound
	}
	err := r.db.QueryRow(ctx, updateReviewQuery,
		review.ID, review.Rating, review.Title, review.Content, review.AuthorName,
	).Scan(&review.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		r.logger.Error("Failed to update review", zap.String("id", review.ID), zap.Error(err))
		return fmt.Errorf("failed to update review %s: %w", review.ID, err)
	}
	return nil
}

func (r *pgReviewRepository) DeleteReview(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return models.ErrNotFound
	}
	tag, err := r.db.Exec(ctx, deleteReviewQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete review", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
