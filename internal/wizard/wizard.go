// Package wizard реализует пошаговый мастер подачи инструмента в каталог:
// черновик с автосохранением, проверка шагов и финальная отправка с оплатой.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"ezcode-server/internal/models"

	"go.uber.org/zap"
)

// persistTimeout ограничивает запись черновика, отвязанную от отмены запроса.
const persistTimeout = 5 * time.Second

var (
	ErrStepOutOfRange   = errors.New("wizard step out of range")
	ErrNotAtPaymentStep = errors.New("submission is only possible at the payment step")
	ErrAlreadySubmitted = errors.New("submission already completed")
	ErrSubmissionFailed = errors.New("submission failed")
	ErrEmptyFieldName   = errors.New("field name must not be empty")
	ErrIncompleteDraft  = errors.New("draft does not pass step validation")
)

// IncompleteDraftError - при отправке черновик не прошел проверку шага Step.
type IncompleteDraftError struct {
	Step   Step
	Errors ValidationErrors
}

func (e *IncompleteDraftError) Error() string {
	return fmt.Sprintf("%s: step %d (%s)", ErrIncompleteDraft, e.Step, e.Step)
}

func (e *IncompleteDraftError) Unwrap() error { return ErrIncompleteDraft }

// DraftStore хранит черновик между сессиями.
type DraftStore interface {
	Load(ctx context.Context) (Draft, bool, error)
	Save(ctx context.Context, d Draft) error
	Delete(ctx context.Context) error
}

// Submitter - внешний обработчик заявки (оплата и сохранение).
type Submitter interface {
	Submit(ctx context.Context, draft Draft, payment models.PaymentData) (*models.SubmissionReceipt, error)
}

// State - снимок мастера для клиента.
type State struct {
	CurrentStep Step                      `json:"current_step"`
	Steps       []StepInfo                `json:"steps"`
	Draft       Draft                     `json:"draft"`
	Errors      ValidationErrors          `json:"errors"`
	Submitted   bool                      `json:"submitted"`
	Receipt     *models.SubmissionReceipt `json:"receipt,omitempty"`
	SubmitError string                    `json:"submit_error,omitempty"`
}

// Wizard - конечный автомат {Step1..Step6, Submitted}. Безопасен для конкурентного
// использования: все операции сериализуются.
type Wizard struct {
	store     DraftStore
	submitter Submitter
	logger    *zap.Logger

	mu          sync.Mutex
	draft       Draft
	current     Step
	errors      ValidationErrors
	submitted   bool
	receipt     *models.SubmissionReceipt
	submitError string
}

func New(store DraftStore, submitter Submitter, logger *zap.Logger) *Wizard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wizard{
		store:     store,
		submitter: submitter,
		logger:    logger.Named("Wizard"),
		draft:     Draft{},
		current:   FirstStep,
		errors:    ValidationErrors{},
	}
}

// Load восстанавливает значения черновика. Мастер всегда начинает с первого шага.
// Нечитаемый черновик заменяется пустым.
func (w *Wizard) Load(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	draft, found, err := w.store.Load(ctx)
	switch {
	case err != nil:
		persistFailuresTotal.WithLabelValues("load").Inc()
		w.logger.Warn("Failed to restore draft, starting empty", zap.Error(err))
		draft = Draft{}
	case !found || draft == nil:
		draft = Draft{}
	default:
		draftsRestoredTotal.Inc()
		w.logger.Debug("Draft restored", zap.Int("fields", len(draft)))
	}

	w.draft = draft
	w.current = FirstStep
	w.errors = ValidationErrors{}
	w.submitted = false
	w.receipt = nil
	w.submitError = ""
}

// UpdateField записывает значение поля, снимает ошибку этого поля и сразу
// сохраняет черновик. Сбой сохранения не возвращается, только логируется.
func (w *Wizard) UpdateField(ctx context.Context, field string, value any) error {
	return w.UpdateFields(ctx, map[string]any{field: value})
}

// UpdateFields применяет несколько записей в порядке ключей и сохраняет черновик один раз.
func (w *Wizard) UpdateFields(ctx context.Context, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "" {
			return ErrEmptyFieldName
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		w.logger.Info("Ignoring field update after submission", zap.Strings("fields", keys))
		return ErrAlreadySubmitted
	}
	for _, k := range keys {
		w.draft[k] = cloneValue(values[k])
		delete(w.errors, k)
	}
	fieldUpdatesTotal.Add(float64(len(keys)))
	w.persistLocked(ctx)
	return nil
}

// ValidateStep проверяет текущий черновик по правилам шага, не меняя состояние.
func (w *Wizard) ValidateStep(step Step) (ValidationErrors, error) {
	if !step.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, step)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return ValidateStep(w.draft, step), nil
}

// GoNext переходит на следующий шаг, если текущий валиден.
// Иначе ошибки сохраняются в состоянии и возвращаются; шаг не меняется.
func (w *Wizard) GoNext() (ValidationErrors, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return nil, ErrAlreadySubmitted
	}
	errs := ValidateStep(w.draft, w.current)
	if !errs.Valid() {
		w.errors = errs
		stepTransitionsTotal.WithLabelValues("next", "blocked").Inc()
		return errs.clone(), nil
	}
	if w.current < LastStep {
		w.current++
	}
	w.errors = ValidationErrors{}
	stepTransitionsTotal.WithLabelValues("next", "ok").Inc()
	return ValidationErrors{}, nil
}

// GoPrevious возвращается на шаг назад без проверки. С первого шага не уходит.
func (w *Wizard) GoPrevious() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return ErrAlreadySubmitted
	}
	if w.current > FirstStep {
		w.current--
	}
	stepTransitionsTotal.WithLabelValues("previous", "ok").Inc()
	return nil
}

// JumpToStep переходит на произвольный шаг. Назад - всегда, вперед - только
// при валидном текущем шаге. Промежуточные шаги не проверяются.
func (w *Wizard) JumpToStep(target Step) (ValidationErrors, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrStepOutOfRange, target)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return nil, ErrAlreadySubmitted
	}
	switch {
	case target == w.current:
		return ValidationErrors{}, nil
	case target < w.current:
		w.current = target
		stepTransitionsTotal.WithLabelValues("jump", "ok").Inc()
		return ValidationErrors{}, nil
	}

	errs := ValidateStep(w.draft, w.current)
	if !errs.Valid() {
		w.errors = errs
		stepTransitionsTotal.WithLabelValues("jump", "blocked").Inc()
		return errs.clone(), nil
	}
	w.current = target
	w.errors = ValidationErrors{}
	stepTransitionsTotal.WithLabelValues("jump", "ok").Inc()
	return ValidationErrors{}, nil
}

// Submit отправляет черновик с платежными данными. Блокировка удерживается на
// время вызова обработчика, поэтому правки не теряются между снимком и удалением черновика.
// При ошибке мастер остается на шаге оплаты с сохраненным черновиком.
func (w *Wizard) Submit(ctx context.Context, payment models.PaymentData) (*models.SubmissionReceipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.submitted {
		return nil, ErrAlreadySubmitted
	}
	if w.current != StepPayment {
		return nil, ErrNotAtPaymentStep
	}
	// JumpToStep проверяет только текущий шаг, поэтому перед оплатой проверяются все.
	for step := FirstStep; step < StepPayment; step++ {
		if errs := ValidateStep(w.draft, step); !errs.Valid() {
			w.errors = errs
			submissionsTotal.WithLabelValues("incomplete").Inc()
			return nil, &IncompleteDraftError{Step: step, Errors: errs.clone()}
		}
	}

	receipt, err := w.submitter.Submit(ctx, w.draft.Clone(), payment)
	if err != nil {
		w.submitError = err.Error()
		submissionsTotal.WithLabelValues("failed").Inc()
		w.logger.Warn("Submission failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	if err := w.deleteDraft(ctx); err != nil {
		persistFailuresTotal.WithLabelValues("delete").Inc()
		w.logger.Error("Failed to delete draft after submission", zap.Error(err))
	}
	w.submitted = true
	w.receipt = receipt
	w.submitError = ""
	w.errors = ValidationErrors{}
	submissionsTotal.WithLabelValues("ok").Inc()
	if receipt != nil {
		w.logger.Info("Submission completed", zap.String("reference", receipt.Reference))
	}
	return receipt, nil
}

// Reset начинает новую заявку с пустым черновиком.
func (w *Wizard) Reset(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.deleteDraft(ctx); err != nil {
		persistFailuresTotal.WithLabelValues("delete").Inc()
		w.logger.Error("Failed to delete draft on reset", zap.Error(err))
	}
	w.draft = Draft{}
	w.current = FirstStep
	w.errors = ValidationErrors{}
	w.submitted = false
	w.receipt = nil
	w.submitError = ""
}

// State возвращает копию состояния.
func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	var receipt *models.SubmissionReceipt
	if w.receipt != nil {
		r := *w.receipt
		receipt = &r
	}
	return State{
		CurrentStep: w.current,
		Steps:       Steps(),
		Draft:       w.draft.Clone(),
		Errors:      w.errors.clone(),
		Submitted:   w.submitted,
		Receipt:     receipt,
		SubmitError: w.submitError,
	}
}

func (w *Wizard) CurrentStep() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// persistLocked сохраняет черновик даже если клиент уже отменил запрос:
// изменение в памяти применено и должно дойти до хранилища.
func (w *Wizard) persistLocked(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := w.store.Save(ctx, w.draft); err != nil {
		persistFailuresTotal.WithLabelValues("save").Inc()
		w.logger.Error("Failed to persist draft", zap.Error(err))
	}
}

func (w *Wizard) deleteDraft(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	return w.store.Delete(ctx)
}
