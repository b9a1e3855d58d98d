package mocks

import (
	"context"

	"ezcode-server/internal/tools"

	"github.com/stretchr/testify/mock"
)

// ReviewRepository - мок tools.ReviewRepository.
type ReviewRepository struct {
	mock.Mock
}

func (m *ReviewRepository) ListReviews(ctx context.Context, toolID string, f tools.ReviewFilter) ([]tools.Review, error) {
	args := m.Called(ctx, toolID, f)
	items, _ := args.Get(0).([]tools.Review)
	return items, args.Error(1)
}

func (m *ReviewRepository) SummarizeReviews(ctx context.Context, toolID string) (*tools.ReviewSummary, error) {
	args := m.Called(ctx, toolID)
	s, _ := args.Get(0).(*tools.ReviewSummary)
	return s, args.Error(1)
}

func (m *ReviewRepository) GetReview(ctx context.Context, id string) (*tools.Review, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*tools.Review)
	return r, args.Error(1)
}

func (m *ReviewRepository) CreateReview(ctx context.Context, r *tools.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *ReviewRepository) UpdateReview(ctx context.Context, r *tools.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *ReviewRepository) DeleteReview(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
