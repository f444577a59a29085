package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/gift-swap-backend/internal/archive"
	"github.com/DoyleJ11/gift-swap-backend/internal/config"
	"github.com/DoyleJ11/gift-swap-backend/internal/httpapi"
	"github.com/DoyleJ11/gift-swap-backend/internal/hub"
	"github.com/DoyleJ11/gift-swap-backend/internal/logging"
	"github.com/DoyleJ11/gift-swap-backend/internal/room"
	"github.com/DoyleJ11/gift-swap-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

type exchangeStore interface {
	archive.Archiver
	archive.Reader
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() (err error) {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	store, closeStore, err := openArchive(cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeStore()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Config{
		Room: room.Config{
			Rules:     cfg.Rules(),
			Archiver:  store,
			IdleGrace: cfg.RoomIdleGrace,
		},
		Logger: log,
	})

	// Build the router *with* the hub injected
	handler := httpapi.SetupRoutes(httpapi.Deps{
		Hub:       h,
		Exchanges: store,
		WS: ws.Options{
			OriginPatterns: cfg.AllowedOrigins,
			MessageRate:    cfg.MessageRate(),
			MessageBurst:   cfg.WSMessageBurst,
		},
		Logger: log,
	})
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		// Closing the rooms first ends every websocket session.
		h.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

func openArchive(dsn string, log *zap.Logger) (exchangeStore, func() error, error) {
	if dsn == "" {
		log.Info("DATABASE_URL not set, keeping finished exchanges in memory")
		return archive.NewMemory(), func() error { return nil }, nil
	}
	store, err := archive.Open(dsn)
	if err != nil {
		return nil, nil, err
	}
	log.Info("archiving finished exchanges to postgres")
	return store, store.Close, nil
}
