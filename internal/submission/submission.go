// Package submission принимает оплаченные заявки мастера, хранит их и ведет модерацию.
package submission

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ezcode-server/internal/models"
)

var (
	ErrPaymentInvalid           = errors.New("payment details are invalid")
	ErrInvalidStatus            = errors.New("invalid submission status")
	ErrInvalidStatusTransition  = errors.New("submission status cannot be changed")
	ErrReferenceGenerationLimit = errors.New("could not allocate a unique submission reference")
)

// Submission - сохраненная заявка. Из платежных данных хранятся только способ и последние цифры карты.
type Submission struct {
	ID            string          `db:"id" json:"id"`
	Reference     string          `db:"reference" json:"reference"`
	UserID        *string         `db:"user_id" json:"user_id,omitempty"`
	ToolName      string          `db:"tool_name" json:"tool_name"`
	WebsiteURL    string          `db:"website_url" json:"website_url"`
	Category      string          `db:"category" json:"category"`
	ContactName   string          `db:"contact_name" json:"contact_name"`
	ContactEmail  string          `db:"contact_email" json:"contact_email"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	CardLast4     *string         `db:"card_last4" json:"card_last4,omitempty"`
	AmountPaid    float64         `db:"amount_paid" json:"amount_paid"`
	Status        string          `db:"status" json:"status"`
	ReviewNote    string          `db:"review_note" json:"review_note"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// Receipt - квитанция для мастера.
func (s *Submission) Receipt() *models.SubmissionReceipt {
	return &models.SubmissionReceipt{
		ID:          s.ID,
		Reference:   s.Reference,
		Status:      s.Status,
		AmountPaid:  s.AmountPaid,
		SubmittedAt: s.CreatedAt,
	}
}

// ListFilter - параметры списка заявок. Пустые Status и UserID не фильтруют.
type ListFilter struct {
	Status string
	UserID string
	Limit  int
	Offset int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Repository хранит заявки.
type Repository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
	List(ctx context.Context, f ListFilter) ([]Submission, error)
	// UpdateStatus меняет статус только у заявки на рассмотрении.
	// Возвращает models.ErrNotFound, если такой заявки нет или она уже рассмотрена.
	UpdateStatus(ctx context.Context, id, status, note string) (*Submission, error)
}

// IsReviewStatus сообщает, можно ли выставить статус при модерации.
func IsReviewStatus(status string) bool {
	return status == models.SubmissionStatusApproved || status == models.SubmissionStatusRejected
}

// IsKnownStatus проверяет значение фильтра списка.
func IsKnownStatus(status string) bool {
	return status == models.SubmissionStatusUnderReview || IsReviewStatus(status)
}
