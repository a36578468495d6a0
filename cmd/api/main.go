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

	"github.com/comandahub/comanda-backend/api"
	"github.com/comandahub/comanda-backend/api/routes"
	"github.com/comandahub/comanda-backend/internal/ifood/commands"
	"github.com/comandahub/comanda-backend/internal/ifood/feed"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/internal/ifood/settings"
	"github.com/comandahub/comanda-backend/internal/ifood/webhook"
	"github.com/comandahub/comanda-backend/internal/notifications"
	localorders "github.com/comandahub/comanda-backend/internal/orders"
	"github.com/comandahub/comanda-backend/pkg/config"
	"github.com/comandahub/comanda-backend/pkg/db"
	ifoodclient "github.com/comandahub/comanda-backend/pkg/ifood"
	"github.com/comandahub/comanda-backend/pkg/logger"
	"github.com/comandahub/comanda-backend/pkg/metrics"
	"github.com/comandahub/comanda-backend/pkg/migrate"
	"github.com/comandahub/comanda-backend/pkg/pubsub"
	"github.com/comandahub/comanda-backend/pkg/redis"
)

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

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	settingsRepo := settings.NewRepository(dbClient.DB())
	ordersRepo := ifoodorders.NewRepository(dbClient.DB())
	localOrders := localorders.NewRepository(dbClient.DB())
	marketplace := ifoodclient.NewClient(cfg.IFood)

	feedPublisher, err := feed.NewPublisher(pubsubClient.OrderFeedPublisher())
	if err != nil {
		logg.Error(ctx, "failed to create feed publisher", err)
		os.Exit(1)
	}

	notifier, err := notifications.NewService(notifications.ServiceParams{
		Topic:  pubsubClient.NotificationPublisher(),
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}

	webhookSvc, err := webhook.NewService(webhook.ServiceParams{
		SettingsRepo:     settingsRepo,
		OrdersRepo:       ordersRepo,
		LocalOrders:      localOrders,
		Marketplace:      marketplace,
		Feed:             feedPublisher,
		Notifier:         notifier,
		Metrics:          metrics.NewWebhookMetrics(prometheus.DefaultRegisterer),
		Logger:           logg,
		AcceptanceWindow: cfg.IFood.AcceptanceWindow,
	})
	if err != nil {
		logg.Error(ctx, "failed to create webhook service", err)
		os.Exit(1)
	}

	commandSvc, err := commands.NewService(commands.ServiceParams{
		SettingsRepo: settingsRepo,
		OrdersRepo:   ordersRepo,
		LocalOrders:  localOrders,
		Marketplace:  marketplace,
		Pipeline:     webhookSvc,
		Feed:         feedPublisher,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create command service", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, redisClient, webhookSvc, settingsRepo, commandSvc)
	server := api.NewServer(cfg, handler)

	startCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(startCtx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(startCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(startCtx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(startCtx, "api server stopped")
	}
}
