package services

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fanpass/internal/models"
)

func TestCreateChargeConfirmsInstantly(t *testing.T) {
	svc := NewPixService("FANPASS", "SAO PAULO", nil)

	charge, err := svc.CreateCharge(&models.PixChargeRequest{
		Amount:      12550,
		Description: "Ticket 42",
	})
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, charge.Status)
	assert.Equal(t, int64(12550), charge.Amount)
	assert.Equal(t, "brl", charge.Currency)
	assert.Contains(t, charge.PixCode, "BR.GOV.BCB.PIX")
	assert.Contains(t, charge.PixCode, "125.50")
	assert.NotEmpty(t, charge.PaymentID)

	png, err := base64.StdEncoding.DecodeString(charge.QRCodeData)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestCreateChargeRejectsNonPositiveAmount(t *testing.T) {
	svc := NewPixService("", "", nil)

	_, err := svc.CreateCharge(&models.PixChargeRequest{Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidPixRequest)

	_, err = svc.CreateCharge(&models.PixChargeRequest{Amount: -500})
	assert.ErrorIs(t, err, ErrInvalidPixRequest)
}

func TestValidateCheckoutRequest(t *testing.T) {
	valid := &models.CheckoutSessionRequest{
		Items: []models.CheckoutItem{
			{Name: "Ticket 42", UnitAmount: 13000, Quantity: 1},
		},
		SuccessURL: "https://fanpass.example/success",
		CancelURL:  "https://fanpass.example/cancel",
	}
	assert.NoError(t, ValidateCheckoutRequest(valid))

	noItems := *valid
	noItems.Items = nil
	assert.ErrorIs(t, ValidateCheckoutRequest(&noItems), ErrInvalidCheckoutRequest)

	noURL := *valid
	noURL.SuccessURL = ""
	assert.ErrorIs(t, ValidateCheckoutRequest(&noURL), ErrInvalidCheckoutRequest)

	badAmount := *valid
	badAmount.Items = []models.CheckoutItem{{Name: "Ticket", UnitAmount: 0, Quantity: 1}}
	assert.ErrorIs(t, ValidateCheckoutRequest(&badAmount), ErrInvalidCheckoutRequest)

	badQuantity := *valid
	badQuantity.Items = []models.CheckoutItem{{Name: "Ticket", UnitAmount: 100, Quantity: 0}}
	assert.ErrorIs(t, ValidateCheckoutRequest(&badQuantity), ErrInvalidCheckoutRequest)

	noName := *valid
	noName.Items = []models.CheckoutItem{{UnitAmount: 100, Quantity: 1}}
	assert.ErrorIs(t, ValidateCheckoutRequest(&noName), ErrInvalidCheckoutRequest)
}
