package submission

import (
	"errors"
	"testing"

	"ezcode-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCard() *models.CardDetails {
	return &models.CardDetails{Number: "4242 4242 4242 4242", Expiry: "12/29", CVC: "123", Name: "Ada Lovelace"}
}

func TestFeesQuote(t *testing.T) {
	q := DefaultFees.Quote()
	assert.Equal(t, 2.00, q.SubmissionFee)
	assert.Equal(t, 0.30, q.ProcessingFee)
	assert.Equal(t, 2.30, q.Total)
	assert.Equal(t, "USD", q.Currency)
}

func TestValidatePayment(t *testing.T) {
	quote := DefaultFees.Quote()

	tests := []struct {
		name    string
		payment models.PaymentData
		fields  []string
	}{
		{
			name:    "valid card",
			payment: models.PaymentData{Method: models.PaymentMethodCard, Amount: 2.30, Card: validCard()},
		},
		{
			name:    "valid paypal",
			payment: models.PaymentData{Method: models.PaymentMethodPayPal, Amount: 2.3},
		},
		{
			name:    "unknown method",
			payment: models.PaymentData{Method: "cash", Amount: 2.30},
			fields:  []string{"method"},
		},
		{
			name:    "wrong amount",
			payment: models.PaymentData{Method: models.PaymentMethodPayPal, Amount: 2.00},
			fields:  []string{"amount"},
		},
		{
			name:    "missing card",
			payment: models.PaymentData{Method: models.PaymentMethodCard, Amount: 2.30},
			fields:  []string{"card"},
		},
		{
			name: "bad card fields",
			payment: models.PaymentData{Method: models.PaymentMethodCard, Amount: 2.30, Card: &models.CardDetails{
				Number: "1234", Expiry: "13/29", CVC: "12", Name: "  ",
			}},
			fields: []string{"card.number", "card.expiry", "card.cvc", "card.name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePayment(tt.payment, quote)
			if len(tt.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrPaymentInvalid))

			var pe *PaymentError
			require.True(t, errors.As(err, &pe))
			assert.Len(t, pe.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, pe.Fields, f)
			}
		})
	}
}

func TestCardLast4(t *testing.T) {
	last := cardLast4(models.PaymentData{Method: models.PaymentMethodCard, Card: validCard()})
	require.NotNil(t, last)
	assert.Equal(t, "4242", *last)

	assert.Nil(t, cardLast4(models.PaymentData{Method: models.PaymentMethodPayPal}))
}

func TestNewReferenceFormat(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.Regexp(t, `^SUB-\d{6}$`, newReference())
	}
}
