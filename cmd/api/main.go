package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-api-ledger/internal/application/account"
	"github.com/go-api-ledger/internal/application/ledger"
	"github.com/go-api-ledger/internal/application/ownership"
	"github.com/go-api-ledger/internal/application/session"
	"github.com/go-api-ledger/internal/application/user"
	"github.com/go-api-ledger/internal/config"
	"github.com/go-api-ledger/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-api-ledger/internal/infrastructure/jwt"
	s3infra "github.com/go-api-ledger/internal/infrastructure/s3"
	"github.com/go-api-ledger/internal/infrastructure/sns"
	transporthttp "github.com/go-api-ledger/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg := config.Load()
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		fatal("dynamodb client", err)
	}
	if cfg.DynamoBootstrap {
		// Creates the tables if they don't exist.
		dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		fatal("jwt provider", err)
	}

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	accountRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts, cfg.DynamoTables.Transactions)
	transactionRepo := dynamo.NewTransactionRepo(dynamoClient, cfg.DynamoTables.Transactions)
	refreshTokenRepo := dynamo.NewRefreshTokenRepo(dynamoClient, cfg.DynamoTables.RefreshTokens)

	ledgerDeps := ledger.Deps{
		Accounts: accountRepo,
		Entries:  transactionRepo,
		Options: ledger.Options{
			MaxAttempts:    cfg.Ledger.MaxAttempts,
			CreditAttempts: cfg.Ledger.CreditAttempts,
			BaseDelay:      cfg.Ledger.RetryBase,
			CreditTimeout:  cfg.Ledger.CreditTimeout,
		},
	}

	// Reconciliation store (optional).
	if cfg.ReconciliationBucket != "" {
		s3Client, err := s3infra.NewClient(ctx, cfg)
		if err != nil {
			fatal("s3 client", err)
		}
		ledgerDeps.Reconciler = s3infra.NewReconciliationStore(s3Client, cfg.ReconciliationBucket)
	} else {
		slog.Warn("RECONCILIATION_BUCKET not set, incomplete transfers are only logged")
	}

	// Ledger event publisher (optional).
	if cfg.LedgerEventsTopicARN != "" {
		publisher, err := sns.NewEventPublisher(ctx, cfg)
		if err != nil {
			fatal("sns publisher", err)
		}
		ledgerDeps.Events = publisher
	}

	guard := ownership.NewGuard(accountRepo)
	engine := ledger.NewEngine(ledgerDeps)
	registry := session.NewRegistry(refreshTokenRepo)

	deps := &transporthttp.Deps{
		UserService: user.NewService(user.ServiceDeps{UserRepo: userRepo}),
		SessionService: session.NewService(session.ServiceDeps{
			UserRepo:    userRepo,
			JWTProvider: jwtProvider,
			Registry:    registry,
		}),
		AccountService: account.NewService(account.ServiceDeps{
			AccountRepo:     accountRepo,
			TransactionRepo: transactionRepo,
			Guard:           guard,
			Ledger:          engine,
		}),
		JWTProvider: jwtProvider,
	}

	router := transporthttp.NewRouter(ctx, cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fatal("forced shutdown", err)
	}
	slog.Info("server stopped")
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
