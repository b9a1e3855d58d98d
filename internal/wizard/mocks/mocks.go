package mocks

import (
	"context"

	"ezcode-server/internal/models"
	"ezcode-server/internal/wizard"

	"github.com/stretchr/testify/mock"
)

// Submitter - мок wizard.Submitter.
type Submitter struct {
	mock.Mock
}

func (m *Submitter) Submit(ctx context.Context, draft wizard.Draft, payment models.PaymentData) (*models.SubmissionReceipt, error) {
	args := m.Called(ctx, draft, payment)
	receipt, _ := args.Get(0).(*models.SubmissionReceipt)
	return receipt, args.Error(1)
}

// DraftStore - мок wizard.DraftStore.
type DraftStore struct {
	mock.Mock
}

func (m *DraftStore) Load(ctx context.Context) (wizard.Draft, bool, error) {
	args := m.Called(ctx)
	d, _ := args.Get(0).(wizard.Draft)
	return d, args.Bool(1), args.Error(2)
}

func (m *DraftStore) Save(ctx context.Context, d wizard.Draft) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DraftStore) Delete(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
