package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"fanpass/internal/pricing"
)

// Ticket status values mirrored from the marketplace lifecycle.
const (
	StatusForSale   = "for-sale"
	StatusForRent   = "for-rent"
	StatusPurchased = "purchased"
	StatusRented    = "rented"
)

func ValidTicketStatus(status string) bool {
	switch status {
	case StatusForSale, StatusForRent, StatusPurchased, StatusRented:
		return true
	}
	return false
}

// TicketDetails is the off-chain side-table row augmenting an on-chain
// ticket with mutable marketplace attributes. At most one row exists per
// token id; rows are upserted, never deleted.
type TicketDetails struct {
	bun.BaseModel `bun:"table:ticket_details"`

	TokenID             int64           `bun:"token_id,pk" json:"tokenId"`
	PriceFanToken       decimal.Decimal `bun:"price_fan_token,notnull" json:"priceFanToken"`
	Status              string          `bun:"status,notnull" json:"status"`
	OwnerPublicKey      string          `bun:"owner_public_key,notnull" json:"ownerPublicKey"`
	LastTransactionDate time.Time       `bun:"last_transaction_date,notnull" json:"lastTransactionDate"`
}

type TicketDetailsInput struct {
	PriceFanToken       decimal.Decimal `json:"priceFanToken"`
	Status              string          `json:"status"`
	OwnerPublicKey      string          `json:"ownerPublicKey"`
	LastTransactionDate time.Time       `json:"lastTransactionDate"`
}

// PassInfo is the on-chain pass metadata for a ticket token.
type PassInfo struct {
	Sector     string `json:"sector"`
	ClubID     int64  `json:"clubId"`
	ValidFrom  int64  `json:"validFrom"`
	ValidUntil int64  `json:"validUntil"`
}

// TokenMetadata is the slice of the token URI document passed through to
// clients; the rest of the document is opaque.
type TokenMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// TicketInfo is the consolidated buyer-facing view of a single ticket.
type TicketInfo struct {
	TokenID         int64          `json:"tokenId"`
	Sector          string         `json:"sector"`
	ClubID          string         `json:"clubId"`
	ValidFrom       string         `json:"validFrom"`
	ValidUntil      string         `json:"validUntil"`
	TokenURI        string         `json:"tokenURI"`
	IsValid         bool           `json:"isValid"`
	Metadata        *TokenMetadata `json:"metadata,omitempty"`
	Details         *TicketDetails `json:"details"`
	PriceConversion *pricing.Quote `json:"priceConversion"`
}

type MintRequest struct {
	To         string `json:"to"`
	Sector     string `json:"sector"`
	ClubID     int64  `json:"clubId"`
	ValidFrom  int64  `json:"validFrom"`
	ValidUntil int64  `json:"validUntil"`
	TokenURI   string `json:"tokenURI"`
}
