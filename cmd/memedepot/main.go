package main

import (
	"fmt"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ahmad-alkadri/meme-depot/internal/config"
	"github.com/ahmad-alkadri/meme-depot/internal/log"
)

var envFile string

func main() {
	root := &cobra.Command{
		Use:           "memedepot",
		Short:         "Meme catalog and its private storage gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file read before the process environment (default public.env for catalog, private.env for gateway)")

	root.AddCommand(newCatalogCommand(), newGatewayCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "memedepot:", err)
		os.Exit(1)
	}
}

func envFileOr(def string) string {
	if envFile != "" {
		return envFile
	}
	return def
}

// setup builds the service logger and starts sentry when a DSN is set. The
// returned func flushes both.
func setup(service string, common config.Common) (*zap.Logger, func(), error) {
	logger, err := log.New(common.LogLevel, common.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(log.Service(service))

	sentryEnabled := common.SentryDSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              common.SentryDSN,
			AttachStacktrace: true,
			ServerName:       service,
		}); err != nil {
			logger.Error("Sentry initialization failed", zap.Error(err))
			sentryEnabled = false
		}
	}

	cleanup := func() {
		if sentryEnabled {
			sentry.Flush(2 * time.Second)
		}
		_ = logger.Sync()
	}
	return logger, cleanup, nil
}
