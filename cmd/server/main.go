package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/traitors-backend/internal/archive"
	"github.com/DoyleJ11/traitors-backend/internal/config"
	"github.com/DoyleJ11/traitors-backend/internal/httpapi"
	"github.com/DoyleJ11/traitors-backend/internal/hub"
	"github.com/DoyleJ11/traitors-backend/internal/logging"
	"github.com/DoyleJ11/traitors-backend/internal/session"
	"github.com/DoyleJ11/traitors-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	var (
		store    *archive.Store
		recorder session.Recorder
		history  httpapi.History
	)
	if cfg.DatabaseURL != "" {
		s, err := archive.Connect(cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		store, recorder, history = s, s, s
	} else {
		logger.Info("DATABASE_URL unset, finished games are not archived")
	}

	h := hub.NewHub(ctx, hub.Options{
		Logger:    logger,
		Rules:     cfg.Rules,
		ReapAfter: cfg.TeardownGrace(),
		Recorder:  recorder,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(h, logger, history, ws.Options{
		Logger:         logger,
		ChatRate:       rate.Limit(cfg.ChatRatePerSecond),
		ChatBurst:      cfg.ChatBurst,
		OriginPatterns: cfg.Origins(),
	})
	srv := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		h.Shutdown()
		if store != nil {
			err = multierr.Append(err, store.Close())
		}
		return err
	})
	return g.Wait()
}
