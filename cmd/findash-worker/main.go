package main

import (
	"context"
	"errors"
	"os"

	"findash/internal/amqp"
	"findash/internal/backend"
	"findash/internal/cli"
	"findash/internal/config"
	applog "findash/internal/log"
	"findash/internal/services"
	"findash/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentWorker)
	logger.Info("Starting findash-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).Validate)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the import worker")
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Import worker is using the memory backend; stored batches are not visible to the server")
	}

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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	importer := services.NewImportService(res.Store, nil, logger.WithComponent(applog.ComponentImport).Logger)
	w := worker.NewImportWorker(importer, logger.Logger)

	logger.Info("Consuming import batches",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue,
		applog.FieldBackend, backendCfg.Type.String())
	if err := amqpClient.ConsumeImportBatches(ctx, w.HandleImportBatch); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		return
	}
	logger.Info("Worker stopped")
}
