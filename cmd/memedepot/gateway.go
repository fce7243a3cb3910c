package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/config"
	"github.com/ahmad-alkadri/meme-depot/internal/gateway"
	"github.com/ahmad-alkadri/meme-depot/internal/httpserver"
)

func newGatewayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Run the private storage gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadGateway(envFileOr("private.env"))
			if err != nil {
				return err
			}
			return runGateway(cmd.Context(), cfg)
		},
	}
}

func runGateway(parent context.Context, cfg *config.GatewayConfig) error {
	logger, cleanup, err := setup("gateway", cfg.Common)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("connecting to minio",
		zap.String("endpoint", cfg.MinioEndpoint),
		zap.String("bucket", cfg.MinioBucket),
		zap.Bool("secure", cfg.MinioUseSSL))

	store, err := gateway.NewMinioStore(cfg, logger)
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}

	service := gateway.NewService(store, gateway.NewDefaultContentTypeDetector(), logger)
	handler := gateway.NewHTTPHandler(service, logger)

	engine := httpserver.NewEngine(httpserver.EngineOptions{
		Service: "gateway",
		Logger:  logger,
		Debug:   cfg.Debug,
		Sentry:  cfg.SentryDSN != "",
	})
	handler.RegisterRoutes(engine)

	runErr := httpserver.Run(ctx, httpserver.NewServer(cfg.Addr(), engine), logger, cfg.ShutdownTimeout)

	if cfg.RemoveBucketOnShutdown {
		if err := store.RemoveBucket(context.Background()); err != nil {
			logger.Error("remove bucket on shutdown", zap.Error(err))
		}
	}
	return runErr
}
