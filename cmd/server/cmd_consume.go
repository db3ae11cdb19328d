package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/voltride-support/internal/config"
	"github.com/iliyamo/voltride-support/internal/logger"
	"github.com/iliyamo/voltride-support/internal/queue"
)

var consumeLogDir string

// consumeCmd runs the order event consumer on its own
var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume order events and append them to orders.log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		log := logger.Must(os.Getenv("APP_ENV") == "dev").Named("consumer")
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		c := &queue.OrderConsumer{URL: config.AMQPURL(), LogDir: consumeLogDir, Log: log}
		log.Info("order consumer starting", zap.String("log_dir", consumeLogDir))
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	consumeCmd.Flags().StringVar(&consumeLogDir, "log-dir", "logs", "directory for orders.log")
}
