package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"findash/internal/auth"
	"findash/internal/backend"
	"findash/internal/cli"
	"findash/internal/config"
	apphttp "findash/internal/http"
	applog "findash/internal/log"
	"findash/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, applog.FieldBackend, backendCfg.Type.String())
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		LoginRateLimit:     cfg.LoginRateLimit,
		Logger:             logger,
	}, apphttp.Deps{
		Transactions: services.NewTransactionService(res.Store, logger.WithComponent(applog.ComponentTransactions).Logger),
		Auth:         services.NewAuthService(res.Store, tokens, logger.WithComponent(applog.ComponentAuth).Logger),
		Gate:         auth.NewGate(tokens, res.Store, logger.WithComponent(applog.ComponentAuth).Logger),
		Store:        res.Store,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting findash server",
			applog.FieldOperation, applog.OpStartup,
			"port", cfg.Port,
			applog.FieldBackend, backendCfg.Type.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err, applog.FieldOperation, applog.OpShutdown)
		return
	}
	logger.Info("Server stopped gracefully", applog.FieldOperation, applog.OpShutdown)
}
