package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/catalog"
	"github.com/ahmad-alkadri/meme-depot/internal/config"
	"github.com/ahmad-alkadri/meme-depot/internal/httpserver"
)

func newCatalogCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Run the public meme catalog API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCatalog(envFileOr("public.env"))
			if err != nil {
				return err
			}
			return runCatalog(cmd.Context(), cfg)
		},
	}
}

func runCatalog(parent context.Context, cfg *config.CatalogConfig) error {
	logger, cleanup, err := setup("catalog", cfg.Common)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("connecting to postgres", zap.String("dsn", cfg.Postgres.DSNMasked()))
	if err := catalog.EnsureDatabase(ctx, cfg.Postgres, logger); err != nil {
		return err
	}

	store, err := catalog.NewGormStore(cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return err
	}

	gateway := catalog.NewGatewayClient(cfg.PrivateAPI, cfg.PrivateAPITimeout)
	service := catalog.NewService(store, gateway, logger)
	handler := catalog.NewHTTPHandler(service, logger)

	engine := httpserver.NewEngine(httpserver.EngineOptions{
		Service:        "catalog",
		Logger:         logger,
		Debug:          cfg.Debug,
		Sentry:         cfg.SentryDSN != "",
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	engine.MaxMultipartMemory = cfg.MaxMultipartMemory
	handler.RegisterRoutes(engine)

	runErr := httpserver.Run(ctx, httpserver.NewServer(cfg.Addr(), engine), logger, cfg.ShutdownTimeout)

	if cfg.DropTablesOnShutdown {
		if err := store.DropTables(context.Background()); err != nil {
			logger.Error("drop tables on shutdown", zap.Error(err))
		}
	}
	return runErr
}
