package marketplace

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fanpass/internal/models"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) SaleListing(ctx context.Context, tokenID int64) (*models.SaleListing, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SaleListing), args.Error(1)
}

func (m *mockReader) RentListing(ctx context.Context, tokenID int64) (*models.RentListing, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentListing), args.Error(1)
}

func (m *mockReader) IsRentalActive(ctx context.Context, tokenID int64) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *mockReader) ActiveRentInfo(ctx context.Context, tokenID int64) (*models.RentInfo, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RentInfo), args.Error(1)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) ListForSale(ctx context.Context, tokenID int64, price *big.Int) (string, error) {
	args := m.Called(ctx, tokenID, price)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) ListForRent(ctx context.Context, tokenID int64, pricePerDay *big.Int, minDuration, maxDuration int64) (string, error) {
	args := m.Called(ctx, tokenID, pricePerDay, minDuration, maxDuration)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) Buy(ctx context.Context, tokenID int64, value *big.Int) (string, error) {
	args := m.Called(ctx, tokenID, value)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) Rent(ctx context.Context, tokenID int64, durationDays int64, value *big.Int) (string, error) {
	args := m.Called(ctx, tokenID, durationDays, value)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) CancelSale(ctx context.Context, tokenID int64) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) CancelRent(ctx context.Context, tokenID int64) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}

func (m *mockWriter) WithdrawRented(ctx context.Context, tokenID int64) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}

type mockDetails struct {
	mock.Mock
}

func (m *mockDetails) GetDetails(ctx context.Context, tokenID int64) (*models.TicketDetails, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TicketDetails), args.Error(1)
}

type mockRates struct {
	mock.Mock
}

func (m *mockRates) Rate(ctx context.Context) (decimal.Decimal, error) {
	args := m.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishMarketEvent(ctx context.Context, event models.MarketEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestService(reader *mockReader, writer *mockWriter, details *mockDetails, rates *mockRates, events EventPublisher) *Service {
	return NewService(reader, writer, details, rates, events, nil, decimal.RequireFromString("1.3"))
}

func saleListing(tokenID int64, active bool) *models.SaleListing {
	return &models.SaleListing{
		TokenID: tokenID,
		Seller:  "0xSeller",
		Price:   big.NewInt(1000000),
		Active:  active,
	}
}

func rentListing(tokenID int64, active bool) *models.RentListing {
	return &models.RentListing{
		TokenID:     tokenID,
		Owner:       "0xOwner",
		PricePerDay: big.NewInt(50000),
		MinDuration: 1,
		MaxDuration: 30,
		Active:      active,
	}
}

func TestGetActiveListingsConvertsFromStoredPrice(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(1)).Return(saleListing(1, true), nil)
	reader.On("RentListing", mock.Anything, int64(1)).Return(rentListing(1, false), nil)
	details.On("GetDetails", mock.Anything, int64(1)).Return(&models.TicketDetails{
		TokenID:       1,
		PriceFanToken: decimal.RequireFromString("50"),
		Status:        models.StatusForSale,
	}, nil)
	rates.On("Rate", mock.Anything).Return(decimal.RequireFromString("2.0"), nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listings, err := svc.GetActiveListings(context.Background(), 1)
	require.NoError(t, err)

	require.NotNil(t, listings.SaleListing.PriceInBRL)
	assert.True(t, listings.SaleListing.PriceInBRL.BRL.Equal(decimal.RequireFromString("130")),
		"expected 130 BRL, got %s", listings.SaleListing.PriceInBRL.BRL)
	assert.True(t, listings.SaleListing.PriceInBRL.FanToken.Equal(decimal.RequireFromString("50")))
	assert.Nil(t, listings.RentListing.PriceInBRL, "inactive listing carries no conversion")
	assert.Equal(t, "1000000", listings.SaleListing.Price)

	// One aggregation call resolves the rate exactly once.
	rates.AssertNumberOfCalls(t, "Rate", 1)
}

func TestGetActiveListingsFeedFailureFailsCall(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(1)).Return(saleListing(1, true), nil)
	reader.On("RentListing", mock.Anything, int64(1)).Return(rentListing(1, false), nil)
	details.On("GetDetails", mock.Anything, int64(1)).Return(&models.TicketDetails{
		TokenID:       1,
		PriceFanToken: decimal.RequireFromString("50"),
		Status:        models.StatusForSale,
	}, nil)
	rates.On("Rate", mock.Anything).Return(decimal.Decimal{}, errors.New("feed down"))

	svc := newTestService(reader, nil, details, rates, nil)

	_, err := svc.GetActiveListings(context.Background(), 1)
	require.Error(t, err, "an active listing with a stored price needs the rate")
	assert.Contains(t, err.Error(), "feed down")
	reader.AssertExpectations(t)
}

func TestGetActiveListingsFeedDownWithoutConversionNeeded(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(9)).Return(saleListing(9, false), nil)
	reader.On("RentListing", mock.Anything, int64(9)).Return(rentListing(9, false), nil)
	details.On("GetDetails", mock.Anything, int64(9)).Return(nil, nil)
	rates.On("Rate", mock.Anything).Return(decimal.Decimal{}, errors.New("feed down"))

	svc := newTestService(reader, nil, details, rates, nil)

	listings, err := svc.GetActiveListings(context.Background(), 9)
	require.NoError(t, err, "a token needing no conversion survives a feed outage")
	assert.False(t, listings.SaleListing.Active)
	assert.False(t, listings.RentListing.Active)
	rates.AssertNotCalled(t, "Rate", mock.Anything)
}

func TestGetActiveListingsBothInactive(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(9)).Return(saleListing(9, false), nil)
	reader.On("RentListing", mock.Anything, int64(9)).Return(rentListing(9, false), nil)
	details.On("GetDetails", mock.Anything, int64(9)).Return(nil, nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listings, err := svc.GetActiveListings(context.Background(), 9)
	require.NoError(t, err, "inactive listings are a state, not an error")
	assert.False(t, listings.SaleListing.Active)
	assert.False(t, listings.RentListing.Active)
	assert.Nil(t, listings.SaleListing.PriceInBRL)
	assert.Nil(t, listings.RentListing.PriceInBRL)
	rates.AssertNotCalled(t, "Rate", mock.Anything)
}

func TestGetActiveListingsMissingDetailsRow(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(2)).Return(saleListing(2, true), nil)
	reader.On("RentListing", mock.Anything, int64(2)).Return(rentListing(2, true), nil)
	details.On("GetDetails", mock.Anything, int64(2)).Return(nil, nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listings, err := svc.GetActiveListings(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, listings.SaleListing.PriceInBRL, "no stored price means no conversion")
	assert.Nil(t, listings.RentListing.PriceInBRL)
	assert.True(t, listings.SaleListing.Active)
	rates.AssertNotCalled(t, "Rate", mock.Anything)
}

func TestGetActiveListingsZeroWeiPriceCarriesNoConversion(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	zeroPriced := saleListing(10, true)
	zeroPriced.Price = big.NewInt(0)
	reader.On("SaleListing", mock.Anything, int64(10)).Return(zeroPriced, nil)
	reader.On("RentListing", mock.Anything, int64(10)).Return(rentListing(10, false), nil)
	details.On("GetDetails", mock.Anything, int64(10)).Return(&models.TicketDetails{
		TokenID:       10,
		PriceFanToken: decimal.RequireFromString("50"),
	}, nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listings, err := svc.GetActiveListings(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, listings.SaleListing.Active)
	assert.Nil(t, listings.SaleListing.PriceInBRL, "an unpriced listing carries no conversion")
	rates.AssertNotCalled(t, "Rate", mock.Anything)
}

func TestGetActiveListingsQuotesBothSidesIndependently(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(11)).Return(saleListing(11, true), nil)
	reader.On("RentListing", mock.Anything, int64(11)).Return(rentListing(11, true), nil)
	details.On("GetDetails", mock.Anything, int64(11)).Return(&models.TicketDetails{
		TokenID:       11,
		PriceFanToken: decimal.RequireFromString("50"),
	}, nil)
	rates.On("Rate", mock.Anything).Return(decimal.RequireFromString("2.0"), nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listings, err := svc.GetActiveListings(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, listings.SaleListing.PriceInBRL)
	require.NotNil(t, listings.RentListing.PriceInBRL)
	assert.True(t, listings.SaleListing.PriceInBRL.BRL.Equal(decimal.RequireFromString("130")))
	assert.True(t, listings.RentListing.PriceInBRL.BRL.Equal(decimal.RequireFromString("130")))
	assert.NotSame(t, listings.SaleListing.PriceInBRL, listings.RentListing.PriceInBRL)

	// Both sides share one rate resolution per aggregation call.
	rates.AssertNumberOfCalls(t, "Rate", 1)
}

func TestGetActiveListingsChainReadFailure(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(3)).Return(nil, errors.New("gateway timeout"))
	reader.On("RentListing", mock.Anything, int64(3)).Return(rentListing(3, true), nil)
	details.On("GetDetails", mock.Anything, int64(3)).Return(nil, nil)
	rates.On("Rate", mock.Anything).Return(decimal.RequireFromString("2.0"), nil)

	svc := newTestService(reader, nil, details, rates, nil)

	_, err := svc.GetActiveListings(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read sale listing")
}

func TestGetActiveListingsInvalidTokenID(t *testing.T) {
	svc := newTestService(new(mockReader), nil, new(mockDetails), new(mockRates), nil)

	_, err := svc.GetActiveListings(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetSaleListingInactiveSkipsRateLookup(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("SaleListing", mock.Anything, int64(4)).Return(saleListing(4, false), nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listing, err := svc.GetSaleListing(context.Background(), 4)
	require.NoError(t, err)
	assert.False(t, listing.Active)
	assert.Nil(t, listing.PriceConversion)
	rates.AssertNotCalled(t, "Rate", mock.Anything)
}

func TestGetRentListingActiveWithConversion(t *testing.T) {
	reader := new(mockReader)
	details := new(mockDetails)
	rates := new(mockRates)

	reader.On("RentListing", mock.Anything, int64(5)).Return(rentListing(5, true), nil)
	details.On("GetDetails", mock.Anything, int64(5)).Return(&models.TicketDetails{
		TokenID:       5,
		PriceFanToken: decimal.RequireFromString("10.5"),
	}, nil)
	rates.On("Rate", mock.Anything).Return(decimal.RequireFromString("3"), nil)

	svc := newTestService(reader, nil, details, rates, nil)

	listing, err := svc.GetRentListing(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, listing.PriceConversion)
	assert.True(t, listing.PriceConversion.BRL.Equal(decimal.RequireFromString("40.95")),
		"10.5 * 3 * 1.3 = 40.95, got %s", listing.PriceConversion.BRL)
}

func TestGetActiveRentInfoNotRented(t *testing.T) {
	reader := new(mockReader)

	reader.On("IsRentalActive", mock.Anything, int64(6)).Return(false, nil)

	svc := newTestService(reader, nil, new(mockDetails), new(mockRates), nil)

	info, err := svc.GetActiveRentInfo(context.Background(), 6)
	require.NoError(t, err)
	assert.Nil(t, info)
	reader.AssertNotCalled(t, "ActiveRentInfo", mock.Anything, mock.Anything)
}

func TestBuyPublishesSoldEvent(t *testing.T) {
	writer := new(mockWriter)
	events := new(mockEvents)

	value := big.NewInt(1000000)
	writer.On("Buy", mock.Anything, int64(7), value).Return("0xdeadbeef", nil)
	events.On("PublishMarketEvent", mock.Anything, mock.MatchedBy(func(e models.MarketEvent) bool {
		return e.Type == models.MarketEventSold && e.TokenID == 7 && e.TxHash == "0xdeadbeef"
	})).Return(nil)

	svc := newTestService(new(mockReader), writer, new(mockDetails), new(mockRates), events)

	txHash, err := svc.Buy(context.Background(), 7, value, "0xBuyer")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", txHash)
	events.AssertExpectations(t)
}

func TestBuyEventFailureDoesNotFailCall(t *testing.T) {
	writer := new(mockWriter)
	events := new(mockEvents)

	value := big.NewInt(1000000)
	writer.On("Buy", mock.Anything, int64(7), value).Return("0xdeadbeef", nil)
	events.On("PublishMarketEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc := newTestService(new(mockReader), writer, new(mockDetails), new(mockRates), events)

	txHash, err := svc.Buy(context.Background(), 7, value, "0xBuyer")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef", txHash)
}

func TestWriteOpsRejectInvalidInput(t *testing.T) {
	svc := newTestService(new(mockReader), new(mockWriter), new(mockDetails), new(mockRates), nil)
	ctx := context.Background()

	_, err := svc.ListForSale(ctx, 0, big.NewInt(1), "0xActor")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListForSale(ctx, 1, nil, "0xActor")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListForSale(ctx, 1, big.NewInt(0), "0xActor")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.ListForRent(ctx, 1, big.NewInt(10), 5, 2, "0xActor")
	assert.ErrorIs(t, err, ErrInvalidInput, "maxDuration below minDuration")

	_, err = svc.Rent(ctx, 1, 0, big.NewInt(10), "0xActor")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.CancelSale(ctx, -1, "0xActor")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListForRentHappyPath(t *testing.T) {
	writer := new(mockWriter)
	events := new(mockEvents)

	pricePerDay := big.NewInt(50000)
	writer.On("ListForRent", mock.Anything, int64(8), pricePerDay, int64(1), int64(14)).Return("0xfeed", nil)
	events.On("PublishMarketEvent", mock.Anything, mock.MatchedBy(func(e models.MarketEvent) bool {
		return e.Type == models.MarketEventListed && e.TokenID == 8
	})).Return(nil)

	svc := newTestService(new(mockReader), writer, new(mockDetails), new(mockRates), events)

	txHash, err := svc.ListForRent(context.Background(), 8, pricePerDay, 1, 14, "0xOwner")
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txHash)
}
