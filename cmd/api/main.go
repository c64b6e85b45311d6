package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/Rayjuxtnx/restaurant-server/api/routes"
	authsvc "github.com/Rayjuxtnx/restaurant-server/internal/auth"
	mediasvc "github.com/Rayjuxtnx/restaurant-server/internal/media"
	menusvc "github.com/Rayjuxtnx/restaurant-server/internal/menu"
	"github.com/Rayjuxtnx/restaurant-server/internal/payments"
	postsvc "github.com/Rayjuxtnx/restaurant-server/internal/posts"
	reservationsvc "github.com/Rayjuxtnx/restaurant-server/internal/reservations"
	"github.com/Rayjuxtnx/restaurant-server/internal/users"
	mpesawebhook "github.com/Rayjuxtnx/restaurant-server/internal/webhooks/mpesa"
	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
	"github.com/Rayjuxtnx/restaurant-server/pkg/db"
	"github.com/Rayjuxtnx/restaurant-server/pkg/logger"
	"github.com/Rayjuxtnx/restaurant-server/pkg/metrics"
	"github.com/Rayjuxtnx/restaurant-server/pkg/migrate"
	"github.com/Rayjuxtnx/restaurant-server/pkg/mpesa"
	"github.com/Rayjuxtnx/restaurant-server/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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
		closeErr := multierr.Combine(redisClient.Close(), dbClient.Close())
		if closeErr != nil {
			logg.Error(context.Background(), "error closing clients", closeErr)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gateway, err := mpesa.NewClient(cfg.Mpesa, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build mpesa client", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	ledger := payments.NewRepository(dbClient.DB())
	reservationRepo := reservationsvc.NewRepository(dbClient.DB())

	if err := authsvc.EnsureAdmin(context.Background(), userRepo, cfg.Admin, cfg.Password, logg); err != nil {
		logg.Error(context.Background(), "failed to seed admin user", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		UserRepo:  userRepo,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(gateway, logg, paymentMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	reservationService, err := reservationsvc.NewService(reservationRepo, paymentService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	menuService, err := menusvc.NewService(menusvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create menu service", err)
		os.Exit(1)
	}

	postService, err := postsvc.NewService(postsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create posts service", err)
		os.Exit(1)
	}

	mediaService, err := mediasvc.NewService(mediasvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	webhookService, err := mpesawebhook.NewService(mpesawebhook.ServiceParams{
		Ledger:       ledger,
		Reservations: reservationRepo,
		Dedup:        redisClient,
		Logger:       logg,
		Metrics:      paymentMetrics,
		Config:       cfg.Webhook,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
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
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, registry, routes.Services{
			Auth:         authService,
			Reservations: reservationService,
			Menu:         menuService,
			Posts:        postService,
			Media:        mediaService,
			Ledger:       ledger,
			Webhook:      webhookService,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
	logg.Info(ctx, "api server stopped")
}
