package mocks

import (
	"context"

	"ezcode-server/internal/tools"

	"github.com/stretchr/testify/mock"
)

// Repository - мок tools.Repository.
type Repository struct {
	mock.Mock
}

func (m *Repository) List(ctx context.Context, f tools.Filter) ([]tools.Tool, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]tools.Tool)
	return items, args.Error(1)
}

func (m *Repository) GetByID(ctx context.Context, id string) (*tools.Tool, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*tools.Tool)
	return t, args.Error(1)
}

func (m *Repository) GetBySlug(ctx context.Context, slug string) (*tools.Tool, error) {
	args := m.Called(ctx, slug)
	t, _ := args.Get(0).(*tools.Tool)
	return t, args.Error(1)
}

func (m *Repository) ListCategories(ctx context.Context) ([]tools.Category, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]tools.Category)
	return items, args.Error(1)
}
