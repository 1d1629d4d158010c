package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/geogamer/internal/assets"
	"github.com/playperu/geogamer/internal/catalog"
	"github.com/playperu/geogamer/internal/config"
	"github.com/playperu/geogamer/internal/database"
	"github.com/playperu/geogamer/internal/handler/health"
	"github.com/playperu/geogamer/internal/migrations"
	"github.com/playperu/geogamer/internal/play"
	"github.com/playperu/geogamer/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	levels := catalog.NewStore(db)
	admin := server.NewAdminDocStore(db)
	if err := server.Seed(ctx, logger, levels, admin, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	// --- Play sessions ---
	broker := server.NewBroker()
	sessions := play.NewRegistry(logger, broker, cfg.SessionTTL)

	var res *assets.Resolver
	if info, err := os.Stat(cfg.AssetsDir); err == nil && info.IsDir() {
		res = assets.NewResolver(os.DirFS(cfg.AssetsDir))
		logger.Info("serving images", "dir", cfg.AssetsDir)
	} else {
		res = assets.NewResolver(nil)
		logger.Warn("image directory missing; every image renders as a placeholder", "dir", cfg.AssetsDir)
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Levels:   levels,
		Sessions: sessions,
		Broker:   broker,
		Admin:    admin,
		Assets:   res,
		Health: map[string]health.Checker{
			"sqlite": health.CheckerFunc(db.PingContext),
		},
		PublicURL: cfg.PublicURL,
		SPADir:    cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}
