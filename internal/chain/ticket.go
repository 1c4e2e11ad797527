package chain

import (
	"context"

	"fanpass/internal/models"
)

// Ticket reads the ticket contract through the gateway.
type Ticket struct {
	client   *Client
	contract string
}

func NewTicket(client *Client, contract string) *Ticket {
	return &Ticket{client: client, contract: contract}
}

type passInfoWire struct {
	Sector     string `json:"sector"`
	ClubID     int64  `json:"clubId"`
	ValidFrom  int64  `json:"validFrom"`
	ValidUntil int64  `json:"validUntil"`
}

func (t *Ticket) PassInfo(ctx context.Context, tokenID int64) (*models.PassInfo, error) {
	var wire passInfoWire
	if err := t.client.call(ctx, "ticket_getPassInfo", []interface{}{t.contract, tokenID}, &wire); err != nil {
		return nil, err
	}
	return &models.PassInfo{
		Sector:     wire.Sector,
		ClubID:     wire.ClubID,
		ValidFrom:  wire.ValidFrom,
		ValidUntil: wire.ValidUntil,
	}, nil
}

func (t *Ticket) TokenURI(ctx context.Context, tokenID int64) (string, error) {
	var uri string
	if err := t.client.call(ctx, "ticket_tokenURI", []interface{}{t.contract, tokenID}, &uri); err != nil {
		return "", err
	}
	return uri, nil
}

func (t *Ticket) IsValid(ctx context.Context, tokenID int64) (bool, error) {
	var valid bool
	if err := t.client.call(ctx, "ticket_isValid", []interface{}{t.contract, tokenID}, &valid); err != nil {
		return false, err
	}
	return valid, nil
}

func (t *Ticket) IsOwner(ctx context.Context, tokenID int64, address string) (bool, error) {
	var owner bool
	if err := t.client.call(ctx, "ticket_isOwner", []interface{}{t.contract, tokenID, address}, &owner); err != nil {
		return false, err
	}
	return owner, nil
}

func (t *Ticket) Mint(ctx context.Context, req *models.MintRequest) (string, error) {
	var result txResultWire
	params := []interface{}{t.contract, req.To, req.Sector, req.ClubID, req.ValidFrom, req.ValidUntil, req.TokenURI}
	if err := t.client.call(ctx, "ticket_mint", params, &result); err != nil {
		return "", err
	}
	return result.TxHash, nil
}
