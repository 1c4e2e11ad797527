package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fanpass/internal/logger"
	"fanpass/internal/models"
	"fanpass/internal/payment/services"
	"fanpass/internal/payment/storage"
	"fanpass/internal/utils"
)

// PaymentEventPublisher streams completed payments to the broker.
type PaymentEventPublisher interface {
	PublishPaymentCompleted(ctx context.Context, event models.PaymentEvent) error
}

type PaymentHandler struct {
	stripeService *services.StripeService
	pixService    *services.PixService
	paymentStore  storage.Store
	producer      PaymentEventPublisher
	logger        *logger.Logger
}

func NewPaymentHandler(stripeService *services.StripeService, pixService *services.PixService, paymentStore storage.Store, producer PaymentEventPublisher, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		stripeService: stripeService,
		pixService:    pixService,
		paymentStore:  paymentStore,
		producer:      producer,
		logger:        logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/payments")
	{
		api.POST("/checkout-session", h.CreateCheckoutSession)
		api.POST("/pix", h.CreatePixCharge)
		api.GET("/:id", h.GetPayment)
		api.GET("", h.ListPayments)
	}
}

// CreateCheckoutSession creates a Stripe hosted checkout session and
// records a pending payment.
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	session, err := h.stripeService.CreateCheckoutSession(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCheckoutRequest) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid checkout request", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create checkout session", err.Error()))
		return
	}

	var total int64
	for _, item := range req.Items {
		total += item.UnitAmount * item.Quantity
	}

	now := time.Now().UTC()
	payment := &models.Payment{
		ID:         utils.GeneratePaymentID(),
		UserID:     c.GetHeader("X-User-ID"),
		TokenID:    req.TokenID,
		Method:     models.PaymentMethodCard,
		Amount:     total,
		Currency:   services.DefaultCurrency,
		Status:     models.PaymentStatusPending,
		ProviderID: session.SessionID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := h.paymentStore.SavePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to persist payment for session %s: %v", session.SessionID, err))
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Checkout session created", session))
}

// CreatePixCharge issues an instantly confirmed PIX charge, persists it
// and streams the completion event.
func (h *PaymentHandler) CreatePixCharge(c *gin.Context) {
	var req models.PixChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request payload", err.Error()))
		return
	}

	charge, err := h.pixService.CreateCharge(&req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPixRequest) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid pix request", err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to create pix charge", err.Error()))
		return
	}

	userID := c.GetHeader("X-User-ID")
	payment := &models.Payment{
		ID:        charge.PaymentID,
		UserID:    userID,
		TokenID:   req.TokenID,
		Method:    models.PaymentMethodPix,
		Amount:    charge.Amount,
		Currency:  charge.Currency,
		Status:    charge.Status,
		CreatedAt: charge.CreatedAt,
		UpdatedAt: charge.CreatedAt,
	}
	if err := h.paymentStore.SavePayment(payment); err != nil {
		h.logger.Error("PAYMENT", fmt.Sprintf("Failed to persist pix payment %s: %v", charge.PaymentID, err))
	}

	if h.producer != nil {
		event := models.PaymentEvent{
			PaymentID:  charge.PaymentID,
			UserID:     userID,
			TokenID:    req.TokenID,
			Method:     models.PaymentMethodPix,
			Amount:     charge.Amount,
			Currency:   charge.Currency,
			Status:     charge.Status,
			OccurredAt: charge.CreatedAt,
		}
		if err := h.producer.PublishPaymentCompleted(c.Request.Context(), event); err != nil {
			h.logger.Warn("KAFKA", fmt.Sprintf("Failed to publish payment event %s: %v", charge.PaymentID, err))
		}
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Pix charge created", charge))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentStore.GetPayment(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, utils.ErrorResponse("Payment not found", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Payment fetched", payment))
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request", "userId query parameter is required"))
		return
	}

	payments, err := h.paymentStore.ListPaymentsByUser(userID, 50, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Failed to list payments", err.Error()))
		return
	}
	c.JSON(http.StatusOK, utils.SuccessResponse("Payments fetched", payments))
}
