package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"housingreview/internal/app"
	"housingreview/internal/cache/sqlite"
	"housingreview/internal/config"
	"housingreview/internal/handler"
	"housingreview/internal/notify/noop"
	"housingreview/internal/notify/ses"
	"housingreview/internal/port"
	"housingreview/internal/repository/postgres"
	"housingreview/internal/router"
	"housingreview/internal/service"
	s3storage "housingreview/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		zap.L().Error("server exited", zap.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "failed to init logger")
	}
	defer func() { _ = zap.L().Sync() }()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return eris.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	store, err := s3storage.NewStore(ctx, &cfg.S3)
	if err != nil {
		return eris.Wrap(err, "failed to initialize S3 store")
	}

	var cache port.ExtractionCache
	if cfg.Cache.Path != "" {
		c, err := sqlite.Open(ctx, cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return eris.Wrap(err, "failed to open extraction cache")
		}
		defer c.Close()
		cache = c
	}

	app.RegisterProviders()
	components, err := app.Build(cfg, cache)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(ctx, &cfg.Email)
	if err != nil {
		return err
	}

	reviewRepo := postgres.NewReviewRepo(db)
	reviewSvc := service.NewReviewService(reviewRepo, store, components.Pipeline, notifier, service.ReviewServiceConfigFrom(cfg))
	tokenSvc := service.NewTokenService(&cfg.JWT)
	worker := service.NewReviewQueueWorker(reviewRepo, reviewSvc, service.ReviewQueueConfigFrom(&cfg.Queue))

	r := router.Setup(
		tokenSvc,
		handler.NewReviewHandler(reviewSvc),
		handler.NewRuleHandler(components.Registry),
		handler.NewStatsHandler(service.NewStatsService(postgres.NewStatsRepo(db))),
		handler.NewHealthHandler(db),
		cfg.CORS.AllowedOrigins,
	)
	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Start(gctx)
		return nil
	})
	g.Go(func() error {
		zap.L().Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server failed")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newNotifier(ctx context.Context, cfg *config.EmailConfig) (port.VerdictNotifier, error) {
	if cfg.Provider == "ses" {
		n, err := ses.NewSESNotifier(ctx, cfg)
		if err != nil {
			return nil, eris.Wrap(err, "failed to initialize SES notifier")
		}
		return n, nil
	}
	return noop.NewNoopNotifier(cfg.FrontendURL), nil
}
