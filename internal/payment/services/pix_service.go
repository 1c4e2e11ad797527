package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"

	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/utils"
)

var ErrInvalidPixRequest = errors.New("invalid pix request")

// PixService issues PIX charges. Charges confirm instantly; there is no
// pending state to poll.
type PixService struct {
	merchantName string
	merchantCity string
	log          *logger.Logger
}

func NewPixService(merchantName, merchantCity string, log *logger.Logger) *PixService {
	if merchantName == "" {
		merchantName = "FANPASS"
	}
	if merchantCity == "" {
		merchantCity = "SAO PAULO"
	}
	return &PixService{
		merchantName: merchantName,
		merchantCity: merchantCity,
		log:          log,
	}
}

// CreateCharge builds an instantly confirmed charge with its copy-paste
// code and QR image.
func (p *PixService) CreateCharge(req *models.PixChargeRequest) (*models.PixCharge, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive amount in centavos", ErrInvalidPixRequest)
	}

	paymentID := utils.GeneratePaymentID()
	pixCode := p.buildPixCode(paymentID, req.Amount)

	png, err := qrcode.Encode(pixCode, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pix QR code: %w", err)
	}

	if p.log != nil {
		p.log.Info("PIX", fmt.Sprintf("Charge %s confirmed for %d centavos", paymentID, req.Amount))
	}

	return &models.PixCharge{
		PaymentID:  paymentID,
		Amount:     req.Amount,
		Currency:   DefaultCurrency,
		Status:     models.PaymentStatusCompleted,
		PixCode:    pixCode,
		QRCodeData: base64.StdEncoding.EncodeToString(png),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// buildPixCode assembles the BR Code style copy-paste string for the
// charge.
func (p *PixService) buildPixCode(paymentID string, amount int64) string {
	reais := amount / 100
	centavos := amount % 100
	return fmt.Sprintf("00020126580014BR.GOV.BCB.PIX01%s5204000053039865406%d.%02d5802BR59%s60%s62070503***",
		paymentID, reais, centavos, p.merchantName, p.merchantCity)
}
