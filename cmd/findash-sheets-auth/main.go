// Command findash-sheets-auth runs the OAuth consent flow for a desktop
// client and saves the resulting token for findash-seed -source=sheets.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"findash/internal/cli"
	"findash/internal/config"
	applog "findash/internal/log"
	"findash/internal/sources/google"
)

const authTimeout = 5 * time.Minute

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentImport)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateOAuthClient)

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Authorization failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	oauthCfg, err := google.OAuthConfig(google.OAuthClient{
		JSON: cfg.GoogleOAuthClientJSON,
		File: cfg.GoogleOAuthClientFile,
	})
	if err != nil {
		return err
	}
	// The client must list this URI among its authorized redirect URIs.
	oauthCfg.RedirectURL = "http://localhost:" + cfg.GoogleOAuthRedirectPort + "/callback"

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			sendOnce(errCh, fmt.Errorf("consent denied: %s", q.Get("error")))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			sendOnce(codeCh, q.Get("code"))
		}
	})
	srv := &http.Server{
		Addr:              ":" + cfg.GoogleOAuthRedirectPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sendOnce(errCh, fmt.Errorf("callback server: %w", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return err
	case <-time.After(authTimeout):
		return errors.New("authorization timed out")
	case <-ctx.Done():
		return ctx.Err()
	}

	tok, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}
	if err := google.SaveToken(cfg.GoogleOAuthTokenFile, tok); err != nil {
		return err
	}
	logger.Info("Saved OAuth token", "path", cfg.GoogleOAuthTokenFile)
	return nil
}

func sendOnce[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
