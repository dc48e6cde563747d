package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vendalivre/vendalivre-backend/api/routes"
	"github.com/vendalivre/vendalivre-backend/internal/auth"
	"github.com/vendalivre/vendalivre-backend/internal/balance"
	"github.com/vendalivre/vendalivre-backend/internal/dashboard"
	"github.com/vendalivre/vendalivre-backend/internal/enrollments"
	"github.com/vendalivre/vendalivre-backend/internal/platform"
	"github.com/vendalivre/vendalivre-backend/internal/products"
	"github.com/vendalivre/vendalivre-backend/internal/recipients"
	"github.com/vendalivre/vendalivre-backend/internal/settlement"
	"github.com/vendalivre/vendalivre-backend/internal/users"
	pagarmewebhook "github.com/vendalivre/vendalivre-backend/internal/webhooks/pagarme"
	"github.com/vendalivre/vendalivre-backend/internal/withdrawals"
	"github.com/vendalivre/vendalivre-backend/pkg/auth/session"
	"github.com/vendalivre/vendalivre-backend/pkg/config"
	"github.com/vendalivre/vendalivre-backend/pkg/db"
	"github.com/vendalivre/vendalivre-backend/pkg/logger"
	"github.com/vendalivre/vendalivre-backend/pkg/metrics"
	"github.com/vendalivre/vendalivre-backend/pkg/migrate"
	"github.com/vendalivre/vendalivre-backend/pkg/outbox"
	"github.com/vendalivre/vendalivre-backend/pkg/pagarme"
	"github.com/vendalivre/vendalivre-backend/pkg/redis"
)

const webhookDedupeScope = "webhook:pagarme"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)
	gateway, err := pagarme.NewClient(context.Background(), cfg.Pagarme, logg, settlementMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create pagarme client", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	outboxPub := outbox.NewService(outbox.NewRepository(gormDB), logg)
	usersRepo := users.NewRepository(gormDB)
	productsRepo := products.NewRepository(gormDB)
	recipientsRepo := recipients.NewRepository(gormDB)

	enrollmentService, err := enrollments.NewService(enrollments.NewRepository(gormDB), usersRepo, outboxPub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create enrollments service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Users:       usersRepo,
		Session:     sessionManager,
		Enrollments: enrollmentService,
		JWT:         cfg.JWT,
		Password:    cfg.Password,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productsRepo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	recipientService, err := recipients.NewService(recipientsRepo, gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create recipients service", err)
		os.Exit(1)
	}

	balanceService, err := balance.NewService(gormDB)
	if err != nil {
		logg.Error(context.Background(), "failed to create balance service", err)
		os.Exit(1)
	}

	withdrawalService, err := withdrawals.NewService(withdrawals.ServiceParams{
		Repo:       withdrawals.NewRepository(gormDB),
		Tx:         dbClient,
		Outbox:     outboxPub,
		Gateway:    gateway,
		Recipients: recipientsRepo,
		Balances:   balanceService,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	platformService, err := platform.NewService(gormDB, cfg.Platform, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create platform service", err)
		os.Exit(1)
	}

	settlementService, err := settlement.NewService(settlement.ServiceParams{
		Repo:        settlement.NewRepository(gormDB),
		Tx:          dbClient,
		Outbox:      outboxPub,
		Gateway:     gateway,
		Products:    productsRepo,
		Recipients:  recipientsRepo,
		Fees:        platformService,
		Enrollments: enrollmentService,
		Platform:    cfg.Platform,
		Logger:      logg,
		Metrics:     settlementMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(gormDB, balanceService)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	webhookService, err := pagarmewebhook.NewService(settlementService, logg, settlementMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}
	webhookGuard, err := pagarmewebhook.NewIdempotencyGuard(redisClient, cfg.Pagarme.WebhookDedupeTTL, webhookDedupeScope)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Sessions:     sessionManager,
			Auth:         authService,
			Settlement:   settlementService,
			Products:     productService,
			Enrollments:  enrollmentService,
			Recipients:   recipientService,
			Withdrawals:  withdrawalService,
			Balances:     balanceService,
			Dashboard:    dashboardService,
			Platform:     platformService,
			Webhook:      webhookService,
			WebhookGuard: webhookGuard,
			Gateway:      gateway,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
