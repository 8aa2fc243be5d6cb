package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/mail"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume placed orders and send confirmation emails",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := newLogger(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		pool, err := connectPostgres(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()

		conn, err := connectRabbitMQ(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer conn.Close()

		w, err := startOrderWorker(ctx, cfg, conn, pool, cache.New(rdb), log)
		if err != nil {
			return err
		}
		log.Info("order worker running")

		<-ctx.Done()
		log.Info("stopping order worker")
		w.Stop()
		return nil
	},
}

func newMailer(cfg config.MailConfig, log *slog.Logger) worker.Mailer {
	if cfg.Enabled() {
		return mail.NewSMTPMailer(cfg)
	}
	log.Warn("SMTP_HOST not set, confirmation emails will only be logged")
	return mail.NewLogMailer(log)
}

// startOrderWorker opens a dedicated consumer channel and starts the worker
// on it.
func startOrderWorker(
	ctx context.Context,
	cfg *config.Config,
	conn *amqp.Connection,
	pool *pgxpool.Pool,
	store *cache.Store,
	log *slog.Logger,
) (*worker.OrderWorker, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open consumer channel: %w", err)
	}

	w := worker.NewOrderWorker(ch, repository.NewOrderRepository(pool), newMailer(cfg.Mail, log), store, log)
	if err := w.Start(ctx); err != nil {
		ch.Close()
		return nil, fmt.Errorf("start order worker: %w", err)
	}
	return w, nil
}
