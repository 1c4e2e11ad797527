package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	_ "github.com/lib/pq"

	"fanpass/internal/auth"
	"fanpass/internal/chain"
	"fanpass/internal/config"
	"fanpass/internal/kafka"
	"fanpass/internal/logger"
	"fanpass/internal/marketplace"
	"fanpass/internal/marketplace/market_api"
	"fanpass/internal/pricing"
	"fanpass/internal/tickets"
	ticket_db "fanpass/internal/tickets/db"
	"fanpass/internal/tickets/qr"
	"fanpass/internal/tickets/ticket_api"
	"fanpass/internal/users"
	user_db "fanpass/internal/users/db"
	"fanpass/internal/users/user_api"
)

func verifyConnections(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		logger.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			logger.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		logger.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	logger.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	logger.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return bunDB, redisClient
}

func main() {
	logger := logger.NewLogger()
	defer logger.Close()

	logger.Info("APP", "Starting FanPass API initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("CONFIG", "JWT_SECRET not set")
	}

	httpClient := &http.Client{
		Timeout: time.Second * 10,
	}
	ctx := context.Background()

	logger.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, logger)
	defer bunDB.Close()
	defer redisClient.Close()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		logger.Info("KAFKA", "Kafka producer initialized successfully")

		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, kafka.AllTopics()); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			logger.Info("KAFKA", "Required topics ensured successfully")
		}
		defer producer.Close()
	} else {
		logger.Warn("KAFKA", "Kafka disabled, marketplace events will not be published")
	}

	markup, err := decimal.NewFromString(cfg.PriceFeed.Markup)
	if err != nil {
		logger.Fatal("CONFIG", fmt.Sprintf("Invalid PRICE_MARKUP: %v", err))
	}
	adjustment, err := decimal.NewFromString(cfg.PriceFeed.Adjustment)
	if err != nil {
		logger.Fatal("CONFIG", fmt.Sprintf("Invalid PRICE_ADJUSTMENT: %v", err))
	}

	feed := pricing.NewCoinGeckoFeed(httpClient, cfg.PriceFeed.BaseURL, cfg.PriceFeed.Asset, cfg.PriceFeed.Currency, adjustment)
	rateCache := pricing.NewRateCache(feed, cfg.PriceFeed.CacheTTL)
	logger.Info("PRICING", fmt.Sprintf("Rate cache initialized (%s/%s, TTL %s)",
		cfg.PriceFeed.Asset, cfg.PriceFeed.Currency, cfg.PriceFeed.CacheTTL))

	rpcClient := chain.NewClient(cfg.Chain.RPCURL)
	marketplaceChain := chain.NewMarketplace(rpcClient, cfg.Chain.MarketplaceContract)
	ticketChain := chain.NewTicket(rpcClient, cfg.Chain.TicketContract)
	logger.Info("CHAIN", fmt.Sprintf("Chain gateway client initialized at %s", cfg.Chain.RPCURL))

	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userService := users.NewService(user_db.New(bunDB), tokenIssuer, logger)

	ticketCache := tickets.NewRedisTicketCache(redisClient, cfg.Redis.TicketInfoTTL)
	ticketService := tickets.NewService(
		ticketChain,
		ticket_db.New(bunDB),
		ticketCache,
		rateCache,
		tickets.NewMetadataFetcher(httpClient),
		userService,
		qr.NewGenerator(os.Getenv("QR_SECRET_KEY")),
		logger,
		markup,
	)

	var events marketplace.EventPublisher
	if producer != nil {
		events = producer
	}
	marketService := marketplace.NewService(
		marketplaceChain,
		marketplaceChain,
		ticket_db.New(bunDB),
		rateCache,
		events,
		logger,
		markup,
	)

	userHandler := user_api.NewHandler(userService, logger)
	ticketHandler := ticket_api.NewHandler(ticketService, logger)
	marketHandler := market_api.NewHandler(marketService, logger)

	logger.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Group(func(protected chi.Router) {
			protected.Use(auth.Middleware(tokenIssuer))

			userHandler.RegisterRoutes(api, protected)
			ticketHandler.RegisterRoutes(api, protected)
			marketHandler.RegisterRoutes(api, protected)
		})
	})
	logger.Info("ROUTER", "User, ticket and marketplace routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 FanPass API running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ FanPass API shutdown complete")
	}
}
