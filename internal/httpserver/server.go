// Package httpserver holds the gin plumbing shared by the catalog and the
// storage gateway: middleware stack, error translation and graceful serving.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ahmad-alkadri/meme-depot/internal/metrics"
)

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Service        string
	Logger         *zap.Logger
	Debug          bool
	Sentry         bool
	AllowedOrigins []string
}

// NewEngine returns a gin engine with recovery, request ids, access logs,
// metrics and, when configured, sentry and CORS. /healthz and /metrics are
// registered on it.
func NewEngine(opts EngineOptions) *gin.Engine {
	if !opts.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(opts.Logger))
	r.Use(metrics.Handler(opts.Service))
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  opts.AllowedOrigins,
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": opts.Service})
	})
	r.GET("/metrics", metrics.Exposer())

	return r
}

// NewServer wraps handler in an http.Server with conservative timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}

// Run serves srv until ctx is cancelled, then shuts it down within
// shutdownTimeout. A listen failure is returned as is.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger, shutdownTimeout time.Duration) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", zap.Error(err))
			return err
		}
		logger.Info("server stopped")
		return nil
	})

	return g.Wait()
}
