/**
 * @description
 * This is the main entry point for the asset service.
 * It initializes and wires together configuration, migrations, the database pool,
 * redis, the RabbitMQ publisher, the receipt mailer, the checkout gateway, the
 * identity verifier, the application service and the HTTP router, then serves
 * until an OS signal asks it to shut down.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pool.
 * - github.com/redis/go-redis/v9: Shared rate-limit counters.
 * - github.com/shopspring/decimal: Money values in JSON responses.
 */
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/assetverse/asset-service/internal/api"
	"github.com/assetverse/asset-service/internal/app"
	"github.com/assetverse/asset-service/internal/config"
	"github.com/assetverse/asset-service/internal/store"
	"github.com/assetverse/asset-service/pkg/checkoutclient"
	"github.com/assetverse/asset-service/pkg/identity"
	"github.com/assetverse/asset-service/pkg/mailer"
	"github.com/assetverse/asset-service/pkg/rabbitmq"
)

const checkoutRateLimitScope = "checkout"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, relying on environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Prices and amounts are sent as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("database migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	var publisher rabbitmq.Publisher = &rabbitmq.EventProducerFallback{}
	if strings.TrimSpace(cfg.RabbitMQURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"rabbitmq url missing; settlement events disabled\" env=RABBITMQ_URL")
	} else if producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
	} else {
		publisher = producer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}
	defer publisher.Close()

	var limiterClient redis.UniversalClient
	if strings.TrimSpace(cfg.RedisURL) == "" {
		log.Println("level=warn component=bootstrap msg=\"redis url missing; checkout rate limiting disabled\" env=REDIS_URL")
	} else if redisOptions, parseErr := redis.ParseURL(cfg.RedisURL); parseErr != nil {
		log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; checkout rate limiting disabled\" err=%v", parseErr)
	} else {
		redisClient := redis.NewClient(redisOptions)
		pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
		pingErr := redisClient.Ping(pingCtx).Err()
		cancelPing()
		if pingErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis ping failed; checkout rate limiting disabled\" err=%v", pingErr)
			redisClient.Close()
		} else {
			defer redisClient.Close()
			limiterClient = redisClient
			log.Println("level=info component=bootstrap msg=\"redis connected\"")
		}
	}

	var receiptMailer app.Mailer = mailer.NoopMailer{}
	if strings.TrimSpace(cfg.SMTPHost) != "" {
		receiptMailer = mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
	} else {
		log.Println("level=warn component=bootstrap msg=\"smtp host missing; payment receipts disabled\" env=SMTP_HOST")
	}

	gateway := checkoutclient.NewClient(checkoutclient.Config{
		SecretKey:  cfg.StripeSecret,
		SiteDomain: cfg.SiteDomain,
		Currency:   cfg.CheckoutCurrency,
	})
	verifier := identity.NewVerifier(identity.Config{
		JWKSURL:   cfg.FirebaseJWKSURL,
		ProjectID: cfg.FirebaseProjectID,
	})

	repository := store.NewRepository(dbpool)
	service := app.NewService(repository, gateway, publisher, receiptMailer, cfg.PaymentEventsExchange)
	limiter := app.NewRedisRateLimiter(limiterClient, cfg.RedisRateLimitPrefix, checkoutRateLimitScope, cfg.CheckoutRateLimitPerMinute, time.Minute)

	handler := api.NewHandler(service)
	router := api.NewRouter(handler, verifier, limiter, cfg.AllowedOrigins())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
