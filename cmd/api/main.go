package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hersa37/kuenyawz-api/internal/app"
	"github.com/hersa37/kuenyawz-api/internal/auth"
	"github.com/hersa37/kuenyawz-api/internal/clock"
	"github.com/hersa37/kuenyawz-api/internal/config"
	"github.com/hersa37/kuenyawz-api/internal/ids"
	"github.com/hersa37/kuenyawz-api/internal/notification"
	"github.com/hersa37/kuenyawz-api/internal/payment"
	"github.com/hersa37/kuenyawz-api/internal/storage/postgres"
	transporthttp "github.com/hersa37/kuenyawz-api/internal/transport/http"
	"github.com/hersa37/kuenyawz-api/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	serviceFee, err := decimal.NewFromString(cfg.ServiceFee)
	if err != nil {
		logger.Fatal("parse SERVICE_FEE", zap.Error(err))
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	purchaseRepo := postgres.NewPurchaseRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	closedDateRepo := postgres.NewClosedDateRepository(pool)
	cartRepo := postgres.NewCartRepository(pool)
	txManager := postgres.NewTxManager(pool)

	gateway := payment.NewClient(cfg.PaymentBaseURL, cfg.PaymentServerKey, logger)
	notifier := notification.NewClient(cfg.WhatsappBaseURL, cfg.WhatsappAPIKey, logger)

	orderingSvc := app.NewOrderingService(
		purchaseRepo,
		transactionRepo,
		closedDateRepo,
		cartRepo,
		txManager,
		gateway,
		notifier,
		ids.NewSnowflake(cfg.SnowflakeNode),
		clock.NewSystem(),
		logger,
		app.WithServiceFee(serviceFee),
		app.WithPaymentExpiry(cfg.PaymentExpiry),
		app.WithCountryCode(cfg.CountryCode),
		app.WithFrontendURL(cfg.FrontendBaseURL),
	)
	cartSvc := app.NewCartService(cartRepo)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Ordering:         orderingSvc,
		Cart:             cartSvc,
		Payments:         orderingSvc,
		Verifier:         tokens,
		PaymentServerKey: cfg.PaymentServerKey,
		AllowedOrigins:   cfg.CORSOrigins,
		Logger:           logger,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.Info("api listening", zap.String("port", cfg.Port))

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
