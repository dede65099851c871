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

	"github.com/rs/zerolog"

	"procurement/db"
	"procurement/db/memory"
	"procurement/db/migrations"
	"procurement/internal/auth"
	"procurement/internal/config"
	"procurement/internal/export"
	"procurement/internal/handlers"
	"procurement/internal/logger"
	"procurement/internal/service"
)

type store interface {
	service.Store
	handlers.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// run serves until a signal arrives or the listener fails. Deferred cleanup
// always runs before it returns.
func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	tokens := auth.NewManager(cfg.Auth.Secret, cfg.Auth.ExpiresIn)
	h := handlers.NewHandler(handlers.Services{
		Auth:      service.NewAuthService(st, tokens),
		Projects:  service.NewProjectService(st),
		Products:  service.NewProductService(st, st),
		RFPs:      service.NewRFPService(st, st, st, export.NewExcelGenerator()),
		Proposals: service.NewProposalService(st, st, export.NewPDFGenerator()),
		Dashboard: service.NewDashboardService(st, st, st),
	}, st, log, cfg.IsDevelopment())

	limiter := handlers.NewRateLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr: cfg.Addr(),
		Handler: handlers.NewRouter(h, handlers.RouterOptions{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			AuthLimiter:    limiter,
			Log:            log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("env", cfg.Environment).
			Str("storage", cfg.DB.Driver).
			Msg("starting procurement API")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store, func(), error) {
	if cfg.DB.Driver == config.DriverMemory {
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, db.Options{
		DSN:             cfg.DB.DSN,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	closeConn := func() {
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}

	if cfg.DB.AutoMigrate {
		if err := migrations.Up(ctx, conn.DB); err != nil {
			closeConn()
			return nil, nil, err
		}
		log.Info().Msg("database migrations applied")
	}
	return db.NewStorage(conn), closeConn, nil
}
