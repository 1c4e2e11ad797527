package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment methods accepted by the payment service.
const (
	PaymentMethodCard = "card"
	PaymentMethodPix  = "pix"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// CheckoutItem is one line of a checkout session. UnitAmount is in the
// currency's minor unit (centavos for BRL).
type CheckoutItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Currency    string `json:"currency,omitempty"`
	UnitAmount  int64  `json:"unitAmount"`
	Quantity    int64  `json:"quantity"`
}

type CheckoutSessionRequest struct {
	Items      []CheckoutItem `json:"items"`
	SuccessURL string         `json:"successUrl"`
	CancelURL  string         `json:"cancelUrl"`
	TokenID    int64          `json:"tokenId,omitempty"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type PixChargeRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	TokenID     int64  `json:"tokenId,omitempty"`
}

// PixCharge is an instantly confirmed PIX payment with its copy-paste code.
type PixCharge struct {
	PaymentID  string    `json:"paymentId"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	PixCode    string    `json:"pixCode"`
	QRCodeData string    `json:"qrCodeData,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Payment is the persisted record of a charge attempt, whichever rail it
// went through.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID         string    `bun:"id,pk" json:"id"`
	UserID     string    `bun:"user_id" json:"userId,omitempty"`
	TokenID    int64     `bun:"token_id" json:"tokenId,omitempty"`
	Method     string    `bun:"method,notnull" json:"method"`
	Amount     int64     `bun:"amount,notnull" json:"amount"`
	Currency   string    `bun:"currency,notnull" json:"currency"`
	Status     string    `bun:"status,notnull" json:"status"`
	ProviderID string    `bun:"provider_id" json:"providerId,omitempty"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updatedAt"`
}
