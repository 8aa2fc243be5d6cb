package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/flicky/go-storefront/internal/cache"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/events"
	"github.com/flicky/go-storefront/internal/handler"
	"github.com/flicky/go-storefront/internal/platform"
	"github.com/flicky/go-storefront/internal/pricing"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/worker"
)

var (
	serveMigrate bool
	serveWorker  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
	serveCmd.Flags().BoolVar(&serveWorker, "with-worker", true, "run the order worker in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to PostgreSQL")

	if serveMigrate {
		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			return err
		}
		log.Info("migrations applied", "count", len(applied))
	}

	rdb, err := connectRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("connected to Redis")

	amqpConn, err := connectRabbitMQ(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer amqpConn.Close()

	pubCh, err := amqpConn.Channel()
	if err != nil {
		return fmt.Errorf("open publisher channel: %w", err)
	}
	defer pubCh.Close()
	log.Info("connected to RabbitMQ")

	store := cache.New(rdb)
	identity := platform.NewClient(cfg.Platform)

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	productRepo := repository.NewProductRepository(pool)
	cartRepo := repository.NewCartRepository(pool)
	wishlistRepo := repository.NewWishlistRepository(pool)
	addressRepo := repository.NewAddressRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)

	// Services
	presenceSvc := service.NewPresenceService(cartRepo, wishlistRepo, store, log)
	productSvc := service.NewProductService(productRepo, store, log)
	svc := handler.Services{
		Products:   productSvc,
		Categories: service.NewCategoryService(categoryRepo, productSvc),
		Cart:       service.NewCartService(cartRepo, productRepo, presenceSvc),
		Wishlist:   service.NewWishlistService(wishlistRepo, productRepo, presenceSvc),
		Presence:   presenceSvc,
		Orders: service.NewOrderService(orderRepo, cartRepo, addressRepo, pricing.Default(),
			events.NewPublisher(pubCh), presenceSvc, log),
		Addresses: service.NewAddressService(addressRepo),
		Profiles:  service.NewProfileService(userRepo, store),
		Admin: service.NewAdminService(userRepo, productRepo, categoryRepo, orderRepo, addressRepo,
			identity, store, log),
	}

	health := handler.NewHealthHandler(
		handler.Check{Name: "postgres", Ping: pool.Ping},
		handler.Check{Name: "redis", Ping: store.Ping},
		handler.Check{Name: "rabbitmq", Ping: func(context.Context) error {
			if amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}},
		handler.Check{Name: "platform", Ping: identity.Health},
	)

	var orderWorker *worker.OrderWorker
	if serveWorker {
		if orderWorker, err = startOrderWorker(ctx, cfg, amqpConn, pool, store, log); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler.NewRouter(cfg, svc, health, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
	if orderWorker != nil {
		orderWorker.Stop()
	}
	log.Info("server stopped")
	return nil
}
