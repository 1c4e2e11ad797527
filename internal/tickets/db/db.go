package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"fanpass/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func New(bunDB *bun.DB) *DB {
	return &DB{Bun: bunDB}
}

// GetDetails fetches the off-chain row for a token. A missing row is
// (nil, nil) so callers can distinguish "no price recorded" from a
// database failure.
func (d *DB) GetDetails(ctx context.Context, tokenID int64) (*models.TicketDetails, error) {
	var details models.TicketDetails
	err := d.Bun.NewSelect().
		Model(&details).
		Where("token_id = ?", tokenID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// UpsertDetails writes the row for a token, replacing any existing one.
func (d *DB) UpsertDetails(ctx context.Context, details *models.TicketDetails) error {
	_, err := d.Bun.NewInsert().
		Model(details).
		On("CONFLICT (token_id) DO UPDATE").
		Set("price_fan_token = EXCLUDED.price_fan_token").
		Set("status = EXCLUDED.status").
		Set("owner_public_key = EXCLUDED.owner_public_key").
		Set("last_transaction_date = EXCLUDED.last_transaction_date").
		Exec(ctx)
	return err
}

// ListDetailsByOwner fetches every row owned by the given wallet address.
func (d *DB) ListDetailsByOwner(ctx context.Context, ownerPublicKey string) ([]models.TicketDetails, error) {
	var rows []models.TicketDetails
	err := d.Bun.NewSelect().
		Model(&rows).
		Where("owner_public_key = ?", ownerPublicKey).
		Order("token_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
