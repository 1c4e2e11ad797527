package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"fanpass/internal/config"
	"fanpass/internal/kafka"
	"fanpass/internal/logger"
	handlers "fanpass/internal/payment/handler"
	"fanpass/internal/payment/services"
	"fanpass/internal/payment/storage"
)

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting FanPass Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()

	store, err := storage.NewPostgreSQLStore(cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to initialize payment storage: %v", err))
	}
	defer store.Close()

	stripeService, err := services.NewStripeService(logger)
	if err != nil {
		logger.Fatal("STRIPE", fmt.Sprintf("Failed to initialize Stripe: %v", err))
	}

	pixService := services.NewPixService(
		os.Getenv("PIX_MERCHANT_NAME"),
		os.Getenv("PIX_MERCHANT_CITY"),
		logger,
	)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		logger.Info("KAFKA", "Kafka producer initialized successfully")
		defer producer.Close()
	} else {
		logger.Warn("KAFKA", "Kafka disabled, payment events will not be published")
	}

	var events handlers.PaymentEventPublisher
	if producer != nil {
		events = producer
	}
	paymentHandler := handlers.NewPaymentHandler(stripeService, pixService, store, events, logger)

	r := gin.Default()
	paymentHandler.RegisterRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		if err := store.HealthCheck(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	port := os.Getenv("PAYMENT_PORT")
	if port == "" {
		port = ":8082"
	}

	server := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
