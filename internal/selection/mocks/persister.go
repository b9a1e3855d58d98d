package mocks

import (
	"context"

	"ezcode-server/internal/selection"

	"github.com/stretchr/testify/mock"
)

// Persister - мок selection.Persister.
type Persister struct {
	mock.Mock
}

func (m *Persister) Load(ctx context.Context) ([]selection.Entry, bool, error) {
	args := m.Called(ctx)
	entries, _ := args.Get(0).([]selection.Entry)
	return entries, args.Bool(1), args.Error(2)
}

func (m *Persister) Save(ctx context.Context, entries []selection.Entry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

func (m *Persister) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
