package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/api/views"
	internaladmin "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/rules"
	stripewebhook "github.com/angelmondragon/storefront-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/session"
	"github.com/angelmondragon/storefront-backend/pkg/stripe"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, db.Options{
		UseSQLite:   cfg.FeatureFlags.UseSQLite,
		AutoMigrate: cfg.FeatureFlags.UseSQLite && cfg.FeatureFlags.AutoMigrate,
	}, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	conn := dbClient.DB()
	catalogRepo := catalog.NewRepository(conn)
	rulesRepo := rules.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)

	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return err
	}
	rulesService, err := rules.NewService(rulesRepo)
	if err != nil {
		return err
	}
	ordersService, err := orders.NewService(orderRepo, rulesService, checkoutMetrics, logg)
	if err != nil {
		return err
	}

	sessions, err := session.NewStore(redisClient, cfg.Session.TTL)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(orderRepo, catalogService, sessions, logg)
	if err != nil {
		return err
	}

	provider := checkout.NewStripeProvider(stripeClient)
	refs, err := checkout.NewRemoteRefs(provider, rulesRepo, stripeClient.Currency(), checkoutMetrics, logg)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.Config{
		SuccessURL: cfg.App.PublicURL("/success.html"),
		CancelURL:  cfg.App.PublicURL("/cancel.html"),
		Currency:   stripeClient.Currency(),
	}, checkout.Deps{
		Provider: provider,
		Refs:     refs,
		Items:    catalogService,
		Orders:   orderRepo,
		Paid:     ordersService,
		Metrics:  checkoutMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	adminService, err := internaladmin.NewService(internaladmin.ServiceParams{
		Repo:           internaladmin.NewRepository(conn),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return err
	}

	webhookService, err := stripewebhook.NewService(ordersService, logg)
	if err != nil {
		return err
	}
	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, stripewebhook.DefaultGuardTTL, "stripe-webhook")
	if err != nil {
		return err
	}

	renderer, err := views.New()
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Renderer:      renderer,
		Catalog:       catalogService,
		Rules:         rulesService,
		Cart:          cartService,
		Orders:        ordersService,
		Checkout:      checkoutService,
		Admin:         adminService,
		Stripe:        stripeClient,
		StripeWebhook: webhookService,
		WebhookGuard:  webhookGuard,
		HTTPMetrics:   httpMetrics,
		Gatherer:      registry,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"stripe_env": stripeClient.Environment(),
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return multierr.Append(server.Shutdown(shutdownCtx), <-serveErr)
}
