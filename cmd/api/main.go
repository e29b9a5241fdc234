package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/fulfillment"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/locks"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/reservation"
	"github.com/angelmondragon/storefront-backend/internal/webhooks"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/kafka"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/shipping"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	lockStore, err := newLockStore(cfg, dbClient, redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create lock store", err)
		os.Exit(1)
	}
	lockManager, err := locks.NewManager(locks.ManagerParams{
		Store:   lockStore,
		TTL:     cfg.Lock.TTL,
		Logger:  logg,
		Metrics: storefrontMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create lock manager", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	inventoryRepo := inventory.NewRepository(dbClient.DB())
	engine, err := reservation.NewEngine(reservation.EngineParams{
		Tx:        dbClient,
		Orders:    ordersRepo,
		Inventory: inventoryRepo,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create reservation engine", err)
		os.Exit(1)
	}

	notifier, closeSender, err := newNotifier(cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notifier", err)
		os.Exit(1)
	}
	defer closeSender()

	checkoutParams := checkout.ServiceParams{
		Tx:           dbClient,
		Locks:        lockManager,
		Products:     inventoryRepo,
		Orders:       ordersRepo,
		Reservations: engine,
		Notifier:     notifier,
		Config:       cfg.Checkout,
		Logger:       logg,
		Metrics:      storefrontMetrics,
	}
	processorParams := webhooks.ProcessorParams{
		Events:       webhooks.NewRepository(dbClient.DB()),
		Orders:       ordersRepo,
		Reservations: engine,
		Notifier:     notifier,
		Logger:       logg,
		Metrics:      storefrontMetrics,
	}

	if cfg.Square.Enabled() {
		squareClient, err := square.NewClient(ctx, cfg.Square, logg)
		if err != nil {
			logg.Error(ctx, "failed to create square client", err)
			os.Exit(1)
		}
		checkoutParams.Gateway = squareClient
	}

	if cfg.Shipping.Enabled() {
		shippingClient, err := shipping.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.APIKey, shipping.WithTimeout(cfg.Shipping.Timeout))
		if err != nil {
			logg.Error(ctx, "failed to create shipping client", err)
			os.Exit(1)
		}
		checkoutParams.Quotes = shippingClient
		labels, err := fulfillment.NewLabelCreator(shippingClient, ordersRepo, inventoryRepo, logg)
		if err != nil {
			logg.Error(ctx, "failed to create label creator", err)
			os.Exit(1)
		}
		processorParams.Labels = labels
	}

	checkoutService, err := checkout.NewService(checkoutParams)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}
	processor, err := webhooks.NewProcessor(processorParams)
	if err != nil {
		logg.Error(ctx, "failed to create webhook processor", err)
		os.Exit(1)
	}
	ordersService, err := orders.NewService(ordersRepo)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	deps := routes.Deps{
		Config:      cfg,
		Logger:      logg,
		ReadyChecks: map[string]controllers.Pinger{"database": dbClient},
		Gatherer:    registry,
		Checkout:    checkoutService,
		Orders:      ordersService,
		Inventory:   inventory.NewService(dbClient, inventoryRepo, logg),
		Webhooks:    processor,
	}
	if redisClient != nil {
		deps.ReadyChecks["redis"] = redisClient
		deps.IdempotencyStore = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"dialect":      dbClient.Dialect(),
		"lock_backend": cfg.Lock.Backend,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}

func newLockStore(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (locks.Store, error) {
	if strings.EqualFold(cfg.Lock.Backend, config.LockBackendRedis) {
		if redisClient == nil {
			return nil, errors.New("redis lock backend requires STOREFRONT_REDIS_URL or STOREFRONT_REDIS_ADDR")
		}
		return locks.NewRedisStore(redisClient)
	}
	return locks.NewGormStore(dbClient.DB())
}

// newNotifier publishes confirmations to Kafka when brokers are configured
// and otherwise only logs them.
func newNotifier(cfg *config.Config, logg *logger.Logger) (*notifications.Notifier, func(), error) {
	if !cfg.Kafka.Enabled() {
		return notifications.NewNotifier(notifications.NewLogSender(logg), cfg.Kafka.FromAddress, logg), func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka, cfg.Kafka.NotificationsTopic)
	if err != nil {
		return nil, nil, err
	}
	sender, err := notifications.NewKafkaSender(producer)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := producer.Close(); err != nil {
			logg.Error(context.Background(), "error closing kafka producer", err)
		}
	}
	return notifications.NewNotifier(sender, cfg.Kafka.FromAddress, logg), closeFn, nil
}
