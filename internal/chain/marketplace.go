package chain

import (
	"context"
	"fmt"
	"math/big"

	"fanpass/internal/models"
)

// Marketplace reads and writes the marketplace contract through the
// gateway. Write methods sign with the server key held by the gateway and
// return the transaction hash once the transaction is mined.
type Marketplace struct {
	client   *Client
	contract string
}

func NewMarketplace(client *Client, contract string) *Marketplace {
	return &Marketplace{client: client, contract: contract}
}

type saleListingWire struct {
	Seller string `json:"seller"`
	Price  string `json:"price"`
	Active bool   `json:"active"`
}

type rentListingWire struct {
	Owner       string `json:"owner"`
	PricePerDay string `json:"pricePerDay"`
	MinDuration int64  `json:"minDuration"`
	MaxDuration int64  `json:"maxDuration"`
	Active      bool   `json:"active"`
}

type rentInfoWire struct {
	Renter    string `json:"renter"`
	StartedAt int64  `json:"startedAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

type txResultWire struct {
	TxHash string `json:"txHash"`
}

func parseWei(value, field string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid wei amount in %s: %q", field, value)
	}
	return amount, nil
}

func (m *Marketplace) SaleListing(ctx context.Context, tokenID int64) (*models.SaleListing, error) {
	var wire saleListingWire
	if err := m.client.call(ctx, "market_getSaleListing", []interface{}{m.contract, tokenID}, &wire); err != nil {
		return nil, err
	}
	price, err := parseWei(wire.Price, "saleListing.price")
	if err != nil {
		return nil, err
	}
	return &models.SaleListing{
		TokenID: tokenID,
		Seller:  wire.Seller,
		Price:   price,
		Active:  wire.Active,
	}, nil
}

func (m *Marketplace) RentListing(ctx context.Context, tokenID int64) (*models.RentListing, error) {
	var wire rentListingWire
	if err := m.client.call(ctx, "market_getRentListing", []interface{}{m.contract, tokenID}, &wire); err != nil {
		return nil, err
	}
	pricePerDay, err := parseWei(wire.PricePerDay, "rentListing.pricePerDay")
	if err != nil {
		return nil, err
	}
	return &models.RentListing{
		TokenID:     tokenID,
		Owner:       wire.Owner,
		PricePerDay: pricePerDay,
		MinDuration: wire.MinDuration,
		MaxDuration: wire.MaxDuration,
		Active:      wire.Active,
	}, nil
}

func (m *Marketplace) IsRentalActive(ctx context.Context, tokenID int64) (bool, error) {
	var active bool
	if err := m.client.call(ctx, "market_isRentalActive", []interface{}{m.contract, tokenID}, &active); err != nil {
		return false, err
	}
	return active, nil
}

func (m *Marketplace) ActiveRentInfo(ctx context.Context, tokenID int64) (*models.RentInfo, error) {
	var wire rentInfoWire
	if err := m.client.call(ctx, "market_getActiveRentInfo", []interface{}{m.contract, tokenID}, &wire); err != nil {
		return nil, err
	}
	return &models.RentInfo{
		TokenID:   tokenID,
		Renter:    wire.Renter,
		StartedAt: wire.StartedAt,
		ExpiresAt: wire.ExpiresAt,
	}, nil
}

func (m *Marketplace) ListForSale(ctx context.Context, tokenID int64, price *big.Int) (string, error) {
	var result txResultWire
	params := []interface{}{m.contract, tokenID, models.WeiString(price)}
	if err := m.client.call(ctx, "market_listForSale", params, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}

func (m *Marketplace) ListForRent(ctx context.Context, tokenID int64, pricePerDay *big.Int, minDuration, maxDuration int64) (string, error) {
	var result txResultWire
	params := []interface{}{m.contract, tokenID, models.WeiString(pricePerDay), minDuration, maxDuration}
	if err := m.client.call(ctx, "market_listForRent", params, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}

func (m *Marketplace) Buy(ctx context.Context, tokenID int64, value *big.Int) (string, error) {
	var result txResultWire
	params := []interface{}{m.contract, tokenID, models.WeiString(value)}
	if err := m.client.call(ctx, "market_buy", params, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}

func (m *Marketplace) Rent(ctx context.Context, tokenID int64, durationDays int64, value *big.Int) (string, error) {
	var result txResultWire
	params := []interface{}{m.contract, tokenID, durationDays, models.WeiString(value)}
	if err := m.client.call(ctx, "market_rent", params, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}

func (m *Marketplace) CancelSale(ctx context.Context, tokenID int64) (string, error) {
	var result txResultWire
	if err := m.client.call(ctx, "market_cancelSale", []interface{}{m.contract, tokenID}, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}

func (m *Marketplace) CancelRent(ctx context.Context, tokenID int64) (string, error) {
	var result txResultWire
	if err := m.client.call(ctx, "market_cancelRent", []interface{}{m.contract, tokenID}, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}

func (m *Marketplace) WithdrawRented(ctx context.Context, tokenID int64) (string, error) {
	var result txResultWire
	if err := m.client.call(ctx, "market_withdrawRented", []interface{}{m.contract, tokenID}, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}
