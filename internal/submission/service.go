package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"ezcode-server/internal/messaging"
	"ezcode-server/internal/models"
	"ezcode-server/internal/wizard"

	"go.uber.org/zap"
)

const (
	referencePrefix   = "SUB-"
	referenceAttempts = 5
)

// Service оформляет заявки мастера и ведет их модерацию.
type Service struct {
	repo      Repository
	publisher messaging.SubmissionEventPublisher
	fees      Fees
	logger    *zap.Logger
	reference func() string
}

var _ wizard.Submitter = (*Service)(nil)

func NewService(repo Repository, publisher messaging.SubmissionEventPublisher, fees Fees, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		fees:      fees,
		logger:    logger.Named("SubmissionService"),
		reference: newReference,
	}
}

// newReference возвращает номер вида SUB-123456.
func newReference() string {
	return fmt.Sprintf("%s%06d", referencePrefix, rand.IntN(1_000_000))
}

func (s *Service) Quote() Quote {
	return s.fees.Quote()
}

// Submit проверяет оплату, сохраняет заявку со статусом under-review и публикует событие.
// Сбой публикации не отменяет заявку.
func (s *Service) Submit(ctx context.Context, draft wizard.Draft, payment models.PaymentData) (*models.SubmissionReceipt, error) {
	quote := s.fees.Quote()
	if err := ValidatePayment(payment, quote); err != nil {
		submissionsCreatedTotal.WithLabelValues("payment_invalid").Inc()
		return nil, err
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("%w: draft is not serializable: %v", models.ErrInvalidInput, err)
	}

	sub := &Submission{
		ToolName:      strings.TrimSpace(draft.String(wizard.FieldName)),
		WebsiteURL:    strings.TrimSpace(draft.String(wizard.FieldWebsite)),
		Category:      strings.TrimSpace(draft.String(wizard.FieldCategory)),
		ContactName:   strings.TrimSpace(draft.String(wizard.FieldContactName)),
		ContactEmail:  strings.TrimSpace(draft.String(wizard.FieldContactEmail)),
		Payload:       payload,
		PaymentMethod: payment.Method,
		CardLast4:     cardLast4(payment),
		AmountPaid:    quote.Total,
		Status:        models.SubmissionStatusUnderReview,
	}
	if userID, ok := models.GetUserIDFromContext(ctx); ok {
		sub.UserID = &userID
	}

	if err := s.create(ctx, sub); err != nil {
		submissionsCreatedTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	submissionsCreatedTotal.WithLabelValues("ok").Inc()
	s.logger.Info("Submission accepted",
		zap.String("submissionID", sub.ID),
		zap.String("reference", sub.Reference),
		zap.String("paymentMethod", sub.PaymentMethod))

	s.publish(ctx, sub, messaging.EventSubmissionCreated, "")
	return sub.Receipt(), nil
}

func (s *Service) create(ctx context.Context, sub *Submission) error {
	for attempt := 1; attempt <= referenceAttempts; attempt++ {
		sub.Reference = s.reference()
		err := s.repo.Create(ctx, sub)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateReference) {
			return err
		}
		s.logger.Warn("Submission reference collision, retrying", zap.String("reference", sub.Reference), zap.Int("attempt", attempt))
	}
	return ErrReferenceGenerationLimit
}

// List возвращает заявки для модерации.
func (s *Service) List(ctx context.Context, f ListFilter) ([]Submission, error) {
	if f.Status != "" && !IsKnownStatus(f.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id string) (*Submission, error) {
	return s.repo.GetByID(ctx, id)
}

// Review переводит заявку из under-review в approved или rejected.
func (s *Service) Review(ctx context.Context, id, status, note string) (*Submission, error) {
	if !IsReviewStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, status, strings.TrimSpace(note))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		// Отличаем отсутствующую заявку от уже рассмотренной.
		existing, getErr := s.repo.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return nil, fmt.Errorf("%w: already %s", ErrInvalidStatusTransition, existing.Status)
	}

	reviewsTotal.WithLabelValues(status).Inc()
	s.logger.Info("Submission reviewed", zap.String("submissionID", id), zap.String("status", status))
	s.publish(ctx, updated, messaging.EventSubmissionStatusChanged, models.SubmissionStatusUnderReview)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, sub *Submission, eventType, previous string) {
	if s.publisher == nil {
		return
	}
	event := messaging.SubmissionEvent{
		EventType:      eventType,
		SubmissionID:   sub.ID,
		Reference:      sub.Reference,
		ToolName:       sub.ToolName,
		Status:         sub.Status,
		PreviousStatus: previous,
		AmountPaid:     sub.AmountPaid,
		OccurredAt:     time.Now().UTC(),
	}
	if sub.UserID != nil {
		event.UserID = *sub.UserID
	}
	if err := s.publisher.PublishSubmissionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish submission event",
			zap.String("eventType", eventType),
			zap.String("reference", sub.Reference),
			zap.Error(err))
	}
}
