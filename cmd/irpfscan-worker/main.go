package main

import (
	"context"
	"errors"
	"os"

	"irpfscan/internal/amqp"
	"irpfscan/internal/analysis"
	"irpfscan/internal/cli"
	"irpfscan/internal/log"
	"irpfscan/internal/rules"
	"irpfscan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("starting irpfscan-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, []string{cfg.RequestQueue, cfg.ResultQueue}, logger)
	if err != nil {
		logger.Error("failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	if err := client.Qos(cfg.WorkerPrefetch); err != nil {
		logger.Error("failed to set channel prefetch", log.FieldError, err)
		os.Exit(1)
	}

	pipeline := analysis.New(rules.DefaultTables(), logger)
	w := worker.New(pipeline, client, cfg.ResultQueue, cfg.AnalyzerTimeout, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		client.Close()
	})

	go func() {
		if err := client.Consume(ctx, cfg.RequestQueue, w.HandleRequest); err != nil {
			if !errors.Is(err, context.Canceled) {
				logger.Error("message consumption failed", log.FieldError, err)
			}
		}
	}()

	logger.Info("worker consuming analysis requests",
		"queue", cfg.RequestQueue,
		"prefetch", cfg.WorkerPrefetch)

	cli.WaitForShutdown(ctx, done)
	logger.Info("worker stopped gracefully")
}
