package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/redis/go-redis/v9"

	"github.com/mzaverin/dropspace/internal/client/cli"
	"github.com/mzaverin/dropspace/internal/client/config"
	"github.com/mzaverin/dropspace/internal/client/identity"
	"github.com/mzaverin/dropspace/internal/client/services"
	"github.com/mzaverin/dropspace/internal/client/session"
	"github.com/mzaverin/dropspace/internal/client/store"
	"github.com/mzaverin/dropspace/internal/logging"
	"github.com/mzaverin/dropspace/internal/tracing"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if cfg.TracingEnabled {
		shutdown, err := tracing.Init("dropspace-client", cfg.OTLPEndpoint)
		if err != nil {
			logger.Warn(ctx, "tracing disabled", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error(ctx, "metadata store unreachable", "addr", cfg.RedisAddr, "error", err)
		os.Exit(1)
	}

	st := store.NewRedis(rdb, logger)
	defer func() { _ = st.Close() }()

	sess := session.New()
	provider := identity.NewRedisProvider(rdb, []byte(cfg.TokenSecret))
	boot := identity.NewBootstrapper(provider, cfg.SessionToken, sess, logger)

	feed := services.NewFeedService(st, cfg.Collection, sess, logger)
	upload := services.NewUploadService(st, cfg.Collection, sess, logger, services.UploadTuning{
		Tick:     cfg.ProgressTickInterval,
		Step:     cfg.ProgressStep,
		LinkBase: cfg.ShareLinkBase,
	})

	app := cli.NewApp(cfg, boot, feed, upload, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error(ctx, "client exited", "error", err)
		os.Exit(1)
	}
}
