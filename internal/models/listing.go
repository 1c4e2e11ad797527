package models

import (
	"math/big"

	"fanpass/internal/pricing"
)

// SaleListing is the on-chain sale record for a token. Price is wei-scale
// and stays an arbitrary-precision integer until the formatting edge.
type SaleListing struct {
	TokenID int64
	Seller  string
	Price   *big.Int
	Active  bool
}

// RentListing is the on-chain rent record for a token.
type RentListing struct {
	TokenID     int64
	Owner       string
	PricePerDay *big.Int
	MinDuration int64
	MaxDuration int64
	Active      bool
}

// RentInfo describes a currently running rental.
type RentInfo struct {
	TokenID   int64  `json:"tokenId"`
	Renter    string `json:"renter"`
	StartedAt int64  `json:"startedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// SaleListingView is the client-facing shape of a sale listing; wei
// amounts are serialized as decimal strings.
type SaleListingView struct {
	Active     bool           `json:"active"`
	Seller     string         `json:"seller"`
	Price      string         `json:"price"`
	PriceInBRL *pricing.Quote `json:"priceInBRL"`
}

type RentListingView struct {
	Active      bool           `json:"active"`
	Owner       string         `json:"owner"`
	PricePerDay string         `json:"pricePerDay"`
	MinDuration string         `json:"minDuration"`
	MaxDuration string         `json:"maxDuration"`
	PriceInBRL  *pricing.Quote `json:"priceInBRL"`
}

// ActiveListings is the aggregated view assembled per token: both listings
// are always present, active or not, so callers can decide what "not
// listed" means.
type ActiveListings struct {
	TokenID     string          `json:"tokenId"`
	SaleListing SaleListingView `json:"saleListing"`
	RentListing RentListingView `json:"rentListing"`
}

// MarketplaceItem is the outermost handler response, with rent info
// attached when a rental is running.
type MarketplaceItem struct {
	TokenID     string          `json:"tokenId"`
	SaleListing SaleListingView `json:"saleListing"`
	RentListing RentListingView `json:"rentListing"`
	RentInfo    *RentInfo       `json:"rentInfo"`
}

// SaleListingDetail is the single-listing variant returned by the
// dedicated sale-listing endpoint.
type SaleListingDetail struct {
	TokenID         string         `json:"tokenId"`
	Seller          string         `json:"seller"`
	Price           string         `json:"price"`
	Active          bool           `json:"active"`
	PriceConversion *pricing.Quote `json:"priceConversion"`
}

type RentListingDetail struct {
	TokenID         string         `json:"tokenId"`
	Owner           string         `json:"owner"`
	PricePerDay     string         `json:"pricePerDay"`
	MinDuration     string         `json:"minDuration"`
	MaxDuration     string         `json:"maxDuration"`
	Active          bool           `json:"active"`
	PriceConversion *pricing.Quote `json:"priceConversion"`
}

// WeiString renders a wei amount for transport; nil becomes "0".
func WeiString(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}
