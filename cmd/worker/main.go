package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/comandahub/comanda-backend/internal/ifood/mirror"
	ifoodorders "github.com/comandahub/comanda-backend/internal/ifood/orders"
	"github.com/comandahub/comanda-backend/pkg/config"
	"github.com/comandahub/comanda-backend/pkg/db"
	"github.com/comandahub/comanda-backend/pkg/logger"
	"github.com/comandahub/comanda-backend/pkg/pubsub"
)

// The mirror worker keeps an in-memory copy of every restaurant's live
// marketplace orders fed from the order feed subscription, so dashboard reads
// never touch the primary on the hot path.
func main() {
	logg := logger.New(logger.Options{ServiceName: "mirror-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "mirror-worker",
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

	consumer, err := mirror.NewConsumer(mirror.ConsumerParams{
		Subscription: pubsubClient.OrderFeedSubscription(),
		Cache:        mirror.NewCache(),
		Loader:       mirror.NewRepoLoader(ifoodorders.NewRepository(dbClient.DB())),
		Logger:       logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create mirror consumer", err)
		os.Exit(1)
	}

	runCtx := logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(runCtx, "starting mirror worker")

	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		logg.Error(runCtx, "mirror worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(runCtx, "mirror worker shutting down gracefully")
}
