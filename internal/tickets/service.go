package tickets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/pricing"
	"fanpass/internal/tickets/qr"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("ticket not found")
)

// TicketChain reads the ticket contract and submits mints.
type TicketChain interface {
	PassInfo(ctx context.Context, tokenID int64) (*models.PassInfo, error)
	TokenURI(ctx context.Context, tokenID int64) (string, error)
	IsValid(ctx context.Context, tokenID int64) (bool, error)
	IsOwner(ctx context.Context, tokenID int64, address string) (bool, error)
	Mint(ctx context.Context, req *models.MintRequest) (string, error)
}

// DetailsDB is the off-chain details table. Missing rows are (nil, nil).
type DetailsDB interface {
	GetDetails(ctx context.Context, tokenID int64) (*models.TicketDetails, error)
	UpsertDetails(ctx context.Context, details *models.TicketDetails) error
	ListDetailsByOwner(ctx context.Context, ownerPublicKey string) ([]models.TicketDetails, error)
}

// InfoCache holds assembled ticket views.
type InfoCache interface {
	Get(ctx context.Context, tokenID int64) (*models.TicketInfo, error)
	Set(ctx context.Context, tokenID int64, info *models.TicketInfo) error
	Invalidate(ctx context.Context, tokenID int64) error
}

type RateSource interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

type MetadataSource interface {
	Fetch(ctx context.Context, tokenURI string) (*models.TokenMetadata, error)
}

// WalletResolver maps an authenticated user to their wallet address.
type WalletResolver interface {
	GetByID(ctx context.Context, userID string) (*models.UserProfile, error)
}

type Service struct {
	Chain    TicketChain
	DB       DetailsDB
	Cache    InfoCache
	Rates    RateSource
	Metadata MetadataSource
	Users    WalletResolver
	QR       *qr.Generator
	Logger   *logger.Logger
	markup   decimal.Decimal
}

func NewService(chain TicketChain, db DetailsDB, cache InfoCache, rates RateSource, metadata MetadataSource, users WalletResolver, qrGen *qr.Generator, logger *logger.Logger, markup decimal.Decimal) *Service {
	if markup.IsZero() {
		markup = pricing.DefaultMarkup
	}
	return &Service{
		Chain:    chain,
		DB:       db,
		Cache:    cache,
		Rates:    rates,
		Metadata: metadata,
		Users:    users,
		QR:       qrGen,
		Logger:   logger,
		markup:   markup,
	}
}

// GetTicketInfo assembles the full view of one ticket: on-chain pass data,
// token metadata, the off-chain details row and its price conversion. A
// fresh cached view short-circuits everything.
func (s *Service) GetTicketInfo(ctx context.Context, tokenID int64) (*models.TicketInfo, error) {
	if tokenID <= 0 {
		return nil, ErrInvalidInput
	}

	if s.Cache != nil {
		cached, err := s.Cache.Get(ctx, tokenID)
		if err != nil && s.Logger != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("ticket info lookup failed for token %d: %v", tokenID, err))
		}
		if cached != nil {
			if s.Logger != nil {
				s.Logger.LogCache("HIT", cacheKey(tokenID), "serving cached ticket info")
			}
			return cached, nil
		}
	}

	var (
		wg       sync.WaitGroup
		passInfo *models.PassInfo
		tokenURI string
		isValid  bool
		details  *models.TicketDetails

		passErr, uriErr, validErr, detailsErr error
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		passInfo, passErr = s.Chain.PassInfo(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		tokenURI, uriErr = s.Chain.TokenURI(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		isValid, validErr = s.Chain.IsValid(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		details, detailsErr = s.DB.GetDetails(ctx, tokenID)
	}()
	wg.Wait()

	if passErr != nil {
		return nil, fmt.Errorf("failed to read pass info: %w", passErr)
	}
	if uriErr != nil {
		return nil, fmt.Errorf("failed to read token URI: %w", uriErr)
	}
	if validErr != nil {
		return nil, fmt.Errorf("failed to read ticket validity: %w", validErr)
	}
	if detailsErr != nil {
		return nil, fmt.Errorf("failed to read ticket details: %w", detailsErr)
	}

	// Metadata is decorative; an unreachable token URI does not block the
	// rest of the view.
	var metadata *models.TokenMetadata
	if s.Metadata != nil && tokenURI != "" {
		fetched, err := s.Metadata.Fetch(ctx, tokenURI)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("CHAIN", fmt.Sprintf("metadata fetch failed for token %d: %v", tokenID, err))
			}
		} else {
			metadata = fetched
		}
	}

	var quote *pricing.Quote
	if details != nil {
		rate, err := s.Rates.Rate(ctx)
		if err != nil {
			return nil, err
		}
		quote = pricing.NewQuote(details.PriceFanToken, rate, s.markup)
	}

	info := &models.TicketInfo{
		TokenID:         tokenID,
		Sector:          passInfo.Sector,
		ClubID:          fmt.Sprintf("%d", passInfo.ClubID),
		ValidFrom:       time.Unix(passInfo.ValidFrom, 0).UTC().Format(time.RFC3339),
		ValidUntil:      time.Unix(passInfo.ValidUntil, 0).UTC().Format(time.RFC3339),
		TokenURI:        tokenURI,
		IsValid:         isValid,
		Metadata:        metadata,
		Details:         details,
		PriceConversion: quote,
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, tokenID, info); err != nil && s.Logger != nil {
			s.Logger.Warn("CACHE", fmt.Sprintf("failed to cache ticket info for token %d: %v", tokenID, err))
		}
	}

	return info, nil
}

// SaveDetails upserts the off-chain row for a token. Cached ticket views
// are left to age out on their TTL, so reads may serve the previous price
// until then.
func (s *Service) SaveDetails(ctx context.Context, tokenID int64, input *models.TicketDetailsInput) (*models.TicketDetails, error) {
	if tokenID <= 0 {
		return nil, ErrInvalidInput
	}
	if !models.ValidTicketStatus(input.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, input.Status)
	}
	if input.PriceFanToken.Sign() < 0 {
		return nil, fmt.Errorf("%w: priceFanToken cannot be negative", ErrInvalidInput)
	}
	if input.OwnerPublicKey == "" {
		return nil, fmt.Errorf("%w: ownerPublicKey is required", ErrInvalidInput)
	}

	lastTx := input.LastTransactionDate
	if lastTx.IsZero() {
		lastTx = time.Now().UTC()
	}

	details := &models.TicketDetails{
		TokenID:             tokenID,
		PriceFanToken:       input.PriceFanToken,
		Status:              input.Status,
		OwnerPublicKey:      input.OwnerPublicKey,
		LastTransactionDate: lastTx,
	}
	if err := s.DB.UpsertDetails(ctx, details); err != nil {
		return nil, fmt.Errorf("failed to save ticket details: %w", err)
	}

	if s.Logger != nil {
		s.Logger.LogDatabase("UPSERT", "ticket_details", fmt.Sprintf("saved details for token %d", tokenID))
	}
	return details, nil
}

// TicketsByOwner resolves the user's wallet and returns every details row
// it owns.
func (s *Service) TicketsByOwner(ctx context.Context, userID string) ([]models.TicketDetails, error) {
	profile, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.ListDetailsByOwner(ctx, profile.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return rows, nil
}

// Mint submits a mint transaction and returns the tx hash.
func (s *Service) Mint(ctx context.Context, req *models.MintRequest) (string, error) {
	if req.To == "" || req.Sector == "" || req.TokenURI == "" {
		return "", fmt.Errorf("%w: to, sector and tokenURI are required", ErrInvalidInput)
	}
	if req.ValidUntil <= req.ValidFrom {
		return "", fmt.Errorf("%w: validUntil must be after validFrom", ErrInvalidInput)
	}

	txHash, err := s.Chain.Mint(ctx, req)
	if err != nil {
		return "", err
	}

	if s.Logger != nil {
		s.Logger.LogChain("mint", 0, fmt.Sprintf("minted to %s tx %s", req.To, txHash))
	}
	return txHash, nil
}

// TicketQR renders an encrypted entry QR for a ticket the user owns.
// Ownership is checked against the details row and confirmed on chain.
func (s *Service) TicketQR(ctx context.Context, tokenID int64, userID string) ([]byte, error) {
	if s.QR == nil {
		return nil, errors.New("qr generator not configured")
	}

	profile, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	details, err := s.DB.GetDetails(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket details: %w", err)
	}
	if details == nil || details.OwnerPublicKey != profile.PublicKey {
		return nil, ErrNotFound
	}

	owner, err := s.Chain.IsOwner(ctx, tokenID, profile.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ticket ownership: %w", err)
	}
	if !owner {
		return nil, ErrNotFound
	}

	passInfo, err := s.Chain.PassInfo(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to read pass info: %w", err)
	}

	return s.QR.GenerateEncryptedQR(qr.Payload{
		TokenID:   tokenID,
		Owner:     profile.PublicKey,
		IssuedAt:  time.Now().UTC(),
		ExpiresAt: time.Unix(passInfo.ValidUntil, 0).UTC(),
	})
}
