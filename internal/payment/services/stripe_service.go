package services

import (
	"errors"
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"fanpass/internal/logger"
	"fanpass/internal/models"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrInvalidCheckoutRequest = errors.New("invalid checkout request")
)

// DefaultCurrency is used when a line item does not name one.
const DefaultCurrency = "brl"

// StripeService creates hosted checkout sessions for card payments.
type StripeService struct {
	client *client.API
	log    *logger.Logger
}

func NewStripeService(log *logger.Logger) (*StripeService, error) {
	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(stripeKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, ErrStripeClientInitFailed
	}

	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeService{
		client: sc,
		log:    log,
	}, nil
}

// ValidateCheckoutRequest checks line items before anything reaches Stripe.
// Amounts are in centavos and must be positive integers.
func ValidateCheckoutRequest(req *models.CheckoutSessionRequest) error {
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrInvalidCheckoutRequest)
	}
	if req.SuccessURL == "" || req.CancelURL == "" {
		return fmt.Errorf("%w: successUrl and cancelUrl are required", ErrInvalidCheckoutRequest)
	}
	for i, item := range req.Items {
		if item.Name == "" {
			return fmt.Errorf("%w: item %d is missing a name", ErrInvalidCheckoutRequest, i)
		}
		if item.UnitAmount <= 0 {
			return fmt.Errorf("%w: item %d unitAmount must be a positive amount in centavos", ErrInvalidCheckoutRequest, i)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be at least 1", ErrInvalidCheckoutRequest, i)
		}
	}
	return nil
}

// CreateCheckoutSession builds a Stripe hosted checkout session from the
// validated line items.
func (s *StripeService) CreateCheckoutSession(req *models.CheckoutSessionRequest) (*models.CheckoutSessionResponse, error) {
	if err := ValidateCheckoutRequest(req); err != nil {
		return nil, err
	}

	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		currency := item.Currency
		if currency == "" {
			currency = DefaultCurrency
		}

		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Description != "" {
			productData.Description = stripe.String(item.Description)
		}
		if item.Image != "" {
			productData.Images = []*string{stripe.String(item.Image)}
		}

		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(currency),
				UnitAmount:  stripe.Int64(item.UnitAmount),
				ProductData: productData,
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	if req.TokenID > 0 {
		params.Metadata = map[string]string{
			"token_id": fmt.Sprintf("%d", req.TokenID),
		}
	}

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session: %v", err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	s.log.Info("STRIPE", fmt.Sprintf("Checkout session created: %s", session.ID))
	return &models.CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}
