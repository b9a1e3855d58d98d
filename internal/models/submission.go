package models

import "time"

// Способы оплаты взноса за размещение.
const (
	PaymentMethodCard   = "card"
	PaymentMethodPayPal = "paypal"
)

// Статусы заявки.
const (
	SubmissionStatusUnderReview = "under-review"
	SubmissionStatusApproved    = "approved"
	SubmissionStatusRejected    = "rejected"
)

// CardDetails - данные карты в том виде, как их ввел пользователь.
// В базу попадают только последние четыре цифры номера.
type CardDetails struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
	Name   string `json:"name"`
}

type BillingAddress struct {
	Country string `json:"country"`
	Zip     string `json:"zip"`
}

// PaymentData передается на шаге оплаты вместе с черновиком.
type PaymentData struct {
	Method  string          `json:"method"`
	Amount  float64         `json:"amount"`
	Card    *CardDetails    `json:"card,omitempty"`
	Billing *BillingAddress `json:"billing,omitempty"`
}

// SubmissionReceipt - результат успешной отправки заявки.
type SubmissionReceipt struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference"`
	Status      string    `json:"status"`
	AmountPaid  float64   `json:"amount_paid"`
	SubmittedAt time.Time `json:"submitted_at"`
}
