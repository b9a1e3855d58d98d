package mocks

import (
	"context"

	"ezcode-server/internal/messaging"
	"ezcode-server/internal/submission"

	"github.com/stretchr/testify/mock"
)

// Repository - мок submission.Repository.
type Repository struct {
	mock.Mock
}

func (m *Repository) Create(ctx context.Context, s *submission.Submission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *Repository) GetByID(ctx context.Context, id string) (*submission.Submission, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*submission.Submission)
	return s, args.Error(1)
}

func (m *Repository) List(ctx context.Context, f submission.ListFilter) ([]submission.Submission, error) {
	args := m.Called(ctx, f)
	items, _ := args.Get(0).([]submission.Submission)
	return items, args.Error(1)
}

func (m *Repository) UpdateStatus(ctx context.Context, id, status, note string) (*submission.Submission, error) {
	args := m.Called(ctx, id, status, note)
	s, _ := args.Get(0).(*submission.Submission)
	return s, args.Error(1)
}

// Publisher - мок messaging.SubmissionEventPublisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) PublishSubmissionEvent(ctx context.Context, event messaging.SubmissionEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
