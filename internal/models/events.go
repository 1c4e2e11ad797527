package models

import "time"

// Marketplace event types published to Kafka after a successful
// transaction is mined.
const (
	MarketEventListed    = "listed"
	MarketEventSold      = "sold"
	MarketEventRented    = "rented"
	MarketEventCancelled = "cancelled"
)

type MarketEvent struct {
	Type       string    `json:"type"`
	TokenID    int64     `json:"tokenId"`
	Actor      string    `json:"actor"`
	TxHash     string    `json:"txHash"`
	OccurredAt time.Time `json:"occurredAt"`
}

type PaymentEvent struct {
	PaymentID  string    `json:"paymentId"`
	UserID     string    `json:"userId,omitempty"`
	TokenID    int64     `json:"tokenId,omitempty"`
	Method     string    `json:"method"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}
