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

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/iliyamo/dog-playground-booking/internal/admission"
	"github.com/iliyamo/dog-playground-booking/internal/config"
	"github.com/iliyamo/dog-playground-booking/internal/database"
	"github.com/iliyamo/dog-playground-booking/internal/handler"
	"github.com/iliyamo/dog-playground-booking/internal/queue"
	"github.com/iliyamo/dog-playground-booking/internal/repository"
	"github.com/iliyamo/dog-playground-booking/internal/router"
	"github.com/iliyamo/dog-playground-booking/internal/service"
	"github.com/iliyamo/dog-playground-booking/internal/session"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := newLogger(cfg)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := database.Open(dbOptions(cfg))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if migrateUp {
				applied, err := database.Migrate(ctx, db)
				if err != nil {
					return err
				}
				log.Info("migrations applied", "files", applied)
			}

			xdb := sqlx.NewDb(db, "mysql")
			bookings := repository.NewBookingRepo(xdb, cfg.LockTimeout)
			playgrounds := repository.NewPlaygroundRepo(xdb)
			dogs := repository.NewDogRepo(xdb)
			users := repository.NewUserRepo(db)
			tokens := repository.NewTokenRepo(db)

			opts := []service.Option{service.WithLogger(log)}
			if cfg.EventsEnabled {
				opts = append(opts, service.WithPublisher(service.NewAMQPPublisher(cfg.RabbitURL, log)))
			}
			booker := service.NewBookingService(admission.NewConfig(), bookings, opts...)

			if cfg.ConsumerEnabled {
				go func() {
					err := queue.StartBookingConsumer(ctx, queue.ConsumerConfig{
						URL: cfg.RabbitURL, LogDir: cfg.EventLogDir, Logger: log,
					})
					if err != nil && !errors.Is(err, context.Canceled) {
						log.Error("booking consumer stopped", "err", err)
					}
				}()
			}

			rdb := config.NewRedisClient(config.LoadRedisConfig(), log)
			if rdb != nil {
				defer rdb.Close()
			}
			sessions := session.NewManager(cfg.SessionHashKey, cfg.SessionBlockKey,
				cfg.RefreshTTLDays*24*60*60, cfg.IsProd())

			e := router.New(router.Deps{
				JWTSecret:   cfg.JWTSecret,
				Sessions:    sessions,
				Redis:       rdb,
				Cache:       config.LoadCacheConfig(),
				RateLimit:   config.LoadRateLimitConfig(),
				Log:         log,
				Auth:        handler.NewAuthHandler(cfg, users, tokens, sessions, log),
				Playgrounds: handler.NewPlaygroundHandler(playgrounds, dogs, booker, cfg.Location, log),
				Dogs:        handler.NewDogHandler(dogs, log),
				Bookings:    handler.NewBookingHandler(booker, bookings, cfg.Location, log),
			})

			addr := ":" + cfg.Port
			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", "addr", addr, "env", cfg.Env, "tz", cfg.Location.String())
				errCh <- e.Start(addr)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrateUp, "migrate", false, "apply database migrations before serving")
	return cmd
}
