package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/queue"
)

func newConsumeCmd() *cobra.Command {
	var logDir string

	cmd := &cobra.Command{
		Use:   "consume",
		Short: "Append booking.confirmed events to the booking log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadBroker()
			log := newLogger(cfg)
			if logDir == "" {
				logDir = cfg.EventLogDir
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("consuming", "queue", queue.BookingQueue, "log_dir", logDir)
			err := queue.StartBookingConsumer(ctx, queue.ConsumerConfig{URL: cfg.RabbitURL, LogDir: logDir, Logger: log})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&logDir, "log-dir", "", "directory for booking.log (default BOOKING_LOG_DIR or logs)")
	return cmd
}
