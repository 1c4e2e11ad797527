package marketplace

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/pricing"
)

var ErrInvalidInput = errors.New("invalid input")

// ChainReader reads marketplace state from the chain gateway.
type ChainReader interface {
	SaleListing(ctx context.Context, tokenID int64) (*models.SaleListing, error)
	RentListing(ctx context.Context, tokenID int64) (*models.RentListing, error)
	IsRentalActive(ctx context.Context, tokenID int64) (bool, error)
	ActiveRentInfo(ctx context.Context, tokenID int64) (*models.RentInfo, error)
}

// ChainWriter submits marketplace transactions and returns the tx hash.
type ChainWriter interface {
	ListForSale(ctx context.Context, tokenID int64, price *big.Int) (string, error)
	ListForRent(ctx context.Context, tokenID int64, pricePerDay *big.Int, minDuration, maxDuration int64) (string, error)
	Buy(ctx context.Context, tokenID int64, value *big.Int) (string, error)
	Rent(ctx context.Context, tokenID int64, durationDays int64, value *big.Int) (string, error)
	CancelSale(ctx context.Context, tokenID int64) (string, error)
	CancelRent(ctx context.Context, tokenID int64) (string, error)
	WithdrawRented(ctx context.Context, tokenID int64) (string, error)
}

// DetailsStore looks up the off-chain price row for a token. A missing row
// is (nil, nil), not an error.
type DetailsStore interface {
	GetDetails(ctx context.Context, tokenID int64) (*models.TicketDetails, error)
}

// RateSource yields the current fan-token rate, usually through a cache.
type RateSource interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

type EventPublisher interface {
	PublishMarketEvent(ctx context.Context, event models.MarketEvent) error
}

type Service struct {
	Reader  ChainReader
	Writer  ChainWriter
	Details DetailsStore
	Rates   RateSource
	Events  EventPublisher
	Logger  *logger.Logger
	markup  decimal.Decimal
}

func NewService(reader ChainReader, writer ChainWriter, details DetailsStore, rates RateSource, events EventPublisher, logger *logger.Logger, markup decimal.Decimal) *Service {
	if markup.IsZero() {
		markup = pricing.DefaultMarkup
	}
	return &Service{
		Reader:  reader,
		Writer:  writer,
		Details: details,
		Rates:   rates,
		Events:  events,
		Logger:  logger,
		markup:  markup,
	}
}

// GetActiveListings assembles the sale and rent state of a token in one
// view. The rate is resolved only when an active listing and a stored
// fan-token price call for a conversion, and once resolved it is reused
// for both sides, so the two listings always quote against the same
// rate. A feed failure fails the whole call; listings are never returned
// with a silently missing conversion when a price row exists.
func (s *Service) GetActiveListings(ctx context.Context, tokenID int64) (*models.ActiveListings, error) {
	if tokenID <= 0 {
		return nil, ErrInvalidInput
	}

	var (
		wg      sync.WaitGroup
		sale    *models.SaleListing
		rent    *models.RentListing
		details *models.TicketDetails

		saleErr, rentErr, detailsErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		sale, saleErr = s.Reader.SaleListing(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		rent, rentErr = s.Reader.RentListing(ctx, tokenID)
	}()
	go func() {
		defer wg.Done()
		details, detailsErr = s.Details.GetDetails(ctx, tokenID)
	}()
	wg.Wait()

	if saleErr != nil {
		return nil, fmt.Errorf("failed to read sale listing: %w", saleErr)
	}
	if rentErr != nil {
		return nil, fmt.Errorf("failed to read rent listing: %w", rentErr)
	}
	if detailsErr != nil {
		return nil, fmt.Errorf("failed to read ticket details: %w", detailsErr)
	}

	view := &models.ActiveListings{
		TokenID: fmt.Sprintf("%d", tokenID),
		SaleListing: models.SaleListingView{
			Active: sale.Active,
			Seller: sale.Seller,
			Price:  models.WeiString(sale.Price),
		},
		RentListing: models.RentListingView{
			Active:      rent.Active,
			Owner:       rent.Owner,
			PricePerDay: models.WeiString(rent.PricePerDay),
			MinDuration: fmt.Sprintf("%d", rent.MinDuration),
			MaxDuration: fmt.Sprintf("%d", rent.MaxDuration),
		},
	}
	// The conversion comes from the off-chain fan-token price, not from the
	// wei listing amount. No row means no conversion, never a zero quote,
	// and a token needing no conversion never touches the price feed.
	saleNeedsQuote := sale.Active && sale.Price != nil && sale.Price.Sign() > 0
	rentNeedsQuote := rent.Active && rent.PricePerDay != nil && rent.PricePerDay.Sign() > 0
	if details != nil && (saleNeedsQuote || rentNeedsQuote) {
		rate, err := s.Rates.Rate(ctx)
		if err != nil {
			return nil, err
		}
		if saleNeedsQuote {
			view.SaleListing.PriceInBRL = pricing.NewQuote(details.PriceFanToken, rate, s.markup)
		}
		if rentNeedsQuote {
			view.RentListing.PriceInBRL = pricing.NewQuote(details.PriceFanToken, rate, s.markup)
		}
	}

	if s.Logger != nil {
		s.Logger.LogMarket("listings", tokenID,
			fmt.Sprintf("sale active=%t rent active=%t", sale.Active, rent.Active))
	}
	return view, nil
}

// GetSaleListing returns the sale side of a token with its conversion.
func (s *Service) GetSaleListing(ctx context.Context, tokenID int64) (*models.SaleListingDetail, error) {
	if tokenID <= 0 {
		return nil, ErrInvalidInput
	}

	sale, err := s.Reader.SaleListing(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to read sale listing: %w", err)
	}

	quote, err := s.quoteFor(ctx, tokenID, sale.Active, sale.Price)
	if err != nil {
		return nil, err
	}

	return &models.SaleListingDetail{
		TokenID:         fmt.Sprintf("%d", tokenID),
		Seller:          sale.Seller,
		Price:           models.WeiString(sale.Price),
		Active:          sale.Active,
		PriceConversion: quote,
	}, nil
}

func (s *Service) GetRentListing(ctx context.Context, tokenID int64) (*models.RentListingDetail, error) {
	if tokenID <= 0 {
		return nil, ErrInvalidInput
	}

	rent, err := s.Reader.RentListing(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to read rent listing: %w", err)
	}

	quote, err := s.quoteFor(ctx, tokenID, rent.Active, rent.PricePerDay)
	if err != nil {
		return nil, err
	}

	return &models.RentListingDetail{
		TokenID:         fmt.Sprintf("%d", tokenID),
		Owner:           rent.Owner,
		PricePerDay:     models.WeiString(rent.PricePerDay),
		MinDuration:     fmt.Sprintf("%d", rent.MinDuration),
		MaxDuration:     fmt.Sprintf("%d", rent.MaxDuration),
		Active:          rent.Active,
		PriceConversion: quote,
	}, nil
}

// quoteFor resolves the conversion for an active listing. Inactive or
// zero-priced listings carry no conversion and skip the rate lookup
// entirely.
func (s *Service) quoteFor(ctx context.Context, tokenID int64, active bool, price *big.Int) (*pricing.Quote, error) {
	if !active || price == nil || price.Sign() <= 0 {
		return nil, nil
	}
	details, err := s.Details.GetDetails(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ticket details: %w", err)
	}
	if details == nil {
		return nil, nil
	}
	rate, err := s.Rates.Rate(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.NewQuote(details.PriceFanToken, rate, s.markup), nil
}

func (s *Service) IsRentalActive(ctx context.Context, tokenID int64) (bool, error) {
	if tokenID <= 0 {
		return false, ErrInvalidInput
	}
	return s.Reader.IsRentalActive(ctx, tokenID)
}

func (s *Service) GetActiveRentInfo(ctx context.Context, tokenID int64) (*models.RentInfo, error) {
	if tokenID <= 0 {
		return nil, ErrInvalidInput
	}
	active, err := s.Reader.IsRentalActive(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, nil
	}
	return s.Reader.ActiveRentInfo(ctx, tokenID)
}

func (s *Service) ListForSale(ctx context.Context, tokenID int64, price *big.Int, actor string) (string, error) {
	if tokenID <= 0 || price == nil || price.Sign() <= 0 {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.ListForSale(ctx, tokenID, price)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventListed, tokenID, actor, txHash)
	return txHash, nil
}

func (s *Service) ListForRent(ctx context.Context, tokenID int64, pricePerDay *big.Int, minDuration, maxDuration int64, actor string) (string, error) {
	if tokenID <= 0 || pricePerDay == nil || pricePerDay.Sign() <= 0 {
		return "", ErrInvalidInput
	}
	if minDuration <= 0 || maxDuration < minDuration {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.ListForRent(ctx, tokenID, pricePerDay, minDuration, maxDuration)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventListed, tokenID, actor, txHash)
	return txHash, nil
}

func (s *Service) Buy(ctx context.Context, tokenID int64, value *big.Int, actor string) (string, error) {
	if tokenID <= 0 || value == nil || value.Sign() <= 0 {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.Buy(ctx, tokenID, value)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventSold, tokenID, actor, txHash)
	return txHash, nil
}

func (s *Service) Rent(ctx context.Context, tokenID int64, durationDays int64, value *big.Int, actor string) (string, error) {
	if tokenID <= 0 || durationDays <= 0 || value == nil || value.Sign() <= 0 {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.Rent(ctx, tokenID, durationDays, value)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventRented, tokenID, actor, txHash)
	return txHash, nil
}

func (s *Service) CancelSale(ctx context.Context, tokenID int64, actor string) (string, error) {
	if tokenID <= 0 {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.CancelSale(ctx, tokenID)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventCancelled, tokenID, actor, txHash)
	return txHash, nil
}

func (s *Service) CancelRent(ctx context.Context, tokenID int64, actor string) (string, error) {
	if tokenID <= 0 {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.CancelRent(ctx, tokenID)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventCancelled, tokenID, actor, txHash)
	return txHash, nil
}

func (s *Service) WithdrawRented(ctx context.Context, tokenID int64, actor string) (string, error) {
	if tokenID <= 0 {
		return "", ErrInvalidInput
	}
	txHash, err := s.Writer.WithdrawRented(ctx, tokenID)
	if err != nil {
		return "", err
	}
	s.publishEvent(ctx, models.MarketEventCancelled, tokenID, actor, txHash)
	return txHash, nil
}

// Item lifts the aggregated listings into the handler response shape so
// rent info can be attached.
func Item(listings *models.ActiveListings) *models.MarketplaceItem {
	return &models.MarketplaceItem{
		TokenID:     listings.TokenID,
		SaleListing: listings.SaleListing,
		RentListing: listings.RentListing,
	}
}

// publishEvent streams the event best effort. A broker hiccup never fails
// a transaction that already made it on chain.
func (s *Service) publishEvent(ctx context.Context, eventType string, tokenID int64, actor, txHash string) {
	if s.Events == nil {
		return
	}
	event := models.MarketEvent{
		Type:       eventType,
		TokenID:    tokenID,
		Actor:      actor,
		TxHash:     txHash,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Events.PublishMarketEvent(ctx, event); err != nil && s.Logger != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("failed to publish %s event for token %d: %v", eventType, tokenID, err))
	}
}
