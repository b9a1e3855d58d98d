package submission

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"ezcode-server/internal/models"
)

const currencyUSD = "USD"

// Fees - стоимость размещения.
type Fees struct {
	SubmissionFee float64
	ProcessingFee float64
}

var DefaultFees = Fees{SubmissionFee: 2.00, ProcessingFee: 0.30}

// Quote - расчет суммы к оплате.
type Quote struct {
	SubmissionFee float64 `json:"submission_fee"`
	ProcessingFee float64 `json:"processing_fee"`
	Total         float64 `json:"total"`
	Currency      string  `json:"currency"`
}

func (f Fees) Quote() Quote {
	return Quote{
		SubmissionFee: f.SubmissionFee,
		ProcessingFee: f.ProcessingFee,
		Total:         float64(toCents(f.SubmissionFee)+toCents(f.ProcessingFee)) / 100,
		Currency:      currencyUSD,
	}
}

func toCents(v float64) int64 {
	return int64(math.Round(v * 100))
}

var (
	cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcRe        = regexp.MustCompile(`^\d{3,4}$`)
)

// PaymentError перечисляет некорректные поля платежа.
type PaymentError struct {
	Fields map[string]string
}

func (e *PaymentError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return ErrPaymentInvalid.Error() + ": " + strings.Join(keys, ", ")
}

func (e *PaymentError) Unwrap() error { return ErrPaymentInvalid }

// ValidatePayment проверяет платежные данные и сумму. Пробелы и дефисы в номере карты допускаются.
func ValidatePayment(p models.PaymentData, q Quote) error {
	fields := map[string]string{}

	switch p.Method {
	case models.PaymentMethodCard:
		validateCard(p.Card, fields)
	case models.PaymentMethodPayPal:
	default:
		fields["method"] = "Payment method must be card or paypal"
	}

	if toCents(p.Amount) != toCents(q.Total) {
		fields["amount"] = "Amount does not match the submission fee"
	}

	if len(fields) > 0 {
		return &PaymentError{Fields: fields}
	}
	return nil
}

func validateCard(card *models.CardDetails, fields map[string]string) {
	if card == nil {
		fields["card"] = "Card details are required"
		return
	}
	if !cardNumberRe.MatchString(normalizeCardNumber(card.Number)) {
		fields["card.number"] = "Card number is invalid"
	}
	if !expiryRe.MatchString(strings.TrimSpace(card.Expiry)) {
		fields["card.expiry"] = "Expiry must be in MM/YY format"
	}
	if !cvcRe.MatchString(strings.TrimSpace(card.CVC)) {
		fields["card.cvc"] = "CVC is invalid"
	}
	if strings.TrimSpace(card.Name) == "" {
		fields["card.name"] = "Cardholder name is required"
	}
}

func normalizeCardNumber(n string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(n)
}

// cardLast4 возвращает последние четыре цифры номера или nil для других способов оплаты.
func cardLast4(p models.PaymentData) *string {
	if p.Method != models.PaymentMethodCard || p.Card == nil {
		return nil
	}
	n := normalizeCardNumber(p.Card.Number)
	if len(n) < 4 {
		return nil
	}
	last := n[len(n)-4:]
	return &last
}
