package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"findash/internal/amqp"
	"findash/internal/backend"
	"findash/internal/cli"
	"findash/internal/config"
	"findash/internal/core"
	applog "findash/internal/log"
	"findash/internal/services"
	"findash/internal/sources"
	"findash/internal/sources/google"
	"findash/internal/sources/jsonfile"
	"findash/internal/store"
)

const (
	sourceFile   = "file"
	sourceSheets = "sheets"
)

type options struct {
	source string
	file   string
	reset  bool
	queue  bool
	batch  int
}

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentImport)

	var opts options
	flag.StringVar(&opts.source, "source", sourceFile, "transaction source: file or sheets")
	flag.StringVar(&opts.file, "file", "transactions.json", "JSON file to import when -source=file")
	flag.BoolVar(&opts.reset, "reset", false, "delete every stored transaction before importing")
	flag.BoolVar(&opts.queue, "queue", false, "publish batches to AMQP for findash-worker instead of inserting them")
	flag.IntVar(&opts.batch, "batch", 0, "transactions per batch (default IMPORT_BATCH_SIZE)")
	flag.Parse()

	cfg := cli.LoadAndValidateConfig(logger, func(c *config.Config) error {
		if err := c.Validate(); err != nil {
			return err
		}
		if opts.source == sourceSheets {
			return c.ValidateSheets()
		}
		return nil
	})
	if opts.batch <= 0 {
		opts.batch = cfg.ImportBatchSize
	}

	ctx, stop := cli.SignalContext(logger.Logger)
	defer stop()

	if err := run(ctx, cfg, opts, logger); err != nil {
		logger.Error("Seed failed", "error", err, applog.FieldOperation, applog.OpImport)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *applog.Logger) error {
	src, err := newSource(ctx, cfg, opts)
	if err != nil {
		return err
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	if backendCfg.Type == backend.MemoryBackend && !opts.queue {
		logger.Warn("Seeding the memory backend; data is discarded when this command exits")
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	var publisher services.BatchPublisher
	if opts.queue {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
		publisher = client
	}

	importer := services.NewImportService(res.Store, publisher, logger.Logger)
	result, err := importer.Import(ctx, src, services.ImportOptions{
		Reset:     opts.reset,
		Queue:     opts.queue,
		BatchSize: opts.batch,
	})
	if err != nil {
		return err
	}
	logger.Info("Transactions imported",
		"source", opts.source,
		"read", result.Read,
		"inserted", result.Inserted,
		"published", result.Published,
		"batches", result.Batches)

	return seedAdmin(ctx, cfg, res.Store, logger)
}

func newSource(ctx context.Context, cfg *config.Config, opts options) (sources.TransactionSource, error) {
	switch opts.source {
	case sourceFile:
		return jsonfile.New(opts.file), nil
	case sourceSheets:
		return google.New(ctx, google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			OAuthClient: google.OAuthClient{
				JSON: cfg.GoogleOAuthClientJSON,
				File: cfg.GoogleOAuthClientFile,
			},
			TokenFile: cfg.GoogleOAuthTokenFile,
		})
	}
	return nil, fmt.Errorf("unknown source %q: must be %s or %s", opts.source, sourceFile, sourceSheets)
}

// seedAdmin creates the admin account unless it already exists or no
// password is configured.
func seedAdmin(ctx context.Context, cfg *config.Config, users store.UserStore, logger *applog.Logger) error {
	if cfg.SeedAdminPassword == "" {
		logger.Info("SEED_ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}
	auth := services.NewAuthService(users, nil, logger.WithComponent(applog.ComponentAuth).Logger)
	u, err := auth.CreateUser(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, "Admin", core.RoleAdmin)
	switch {
	case err == nil:
		logger.Info("Admin user created", applog.FieldUserID, u.ID, "email", u.Email)
		return nil
	case errors.Is(err, core.ErrUserExists):
		logger.Info("Admin user already exists", "email", cfg.SeedAdminEmail)
		return nil
	default:
		return fmt.Errorf("create admin user: %w", err)
	}
}
