package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prudhivi99/billing-console/internal/aggregator"
	"github.com/prudhivi99/billing-console/internal/billing"
	"github.com/prudhivi99/billing-console/internal/cache"
	"github.com/prudhivi99/billing-console/internal/client"
	"github.com/prudhivi99/billing-console/internal/config"
	"github.com/prudhivi99/billing-console/internal/discovery"
	"github.com/prudhivi99/billing-console/internal/handlers"
	"github.com/prudhivi99/billing-console/internal/logger"
	"github.com/prudhivi99/billing-console/internal/messaging"
	"github.com/prudhivi99/billing-console/internal/metrics"
	"github.com/prudhivi99/billing-console/internal/middleware"
	"github.com/prudhivi99/billing-console/internal/publisher"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log)
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Service discovery, falling back to the configured URLs
	var (
		locator discovery.Locator
		consul  *discovery.ConsulClient
	)
	if cfg.Consul.Enabled {
		consul, err = discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port, log)
		if err != nil {
			log.Warn("Consul unavailable, using fallback URLs", zap.Error(err))
		} else {
			locator = consul
		}
	}
	resolver := discovery.NewResolver(locator, []discovery.Target{
		{Name: cfg.Consul.CustomerService, Fallback: cfg.Upstream.CustomerURL},
		{Name: cfg.Consul.ProductService, Fallback: cfg.Upstream.ProductURL},
		{Name: cfg.Consul.BillService, Fallback: cfg.Upstream.BillURL},
	}, log)
	go resolver.Run(ctx, cfg.Consul.RefreshInterval)

	// Remote clients, each with its own rate budget
	clientOpts := func() []client.Option {
		opts := []client.Option{
			client.WithHTTPClient(&http.Client{Timeout: cfg.Upstream.Timeout}),
			client.WithObserver(m),
			client.WithLogger(log),
		}
		if cfg.Upstream.RateLimit > 0 {
			opts = append(opts, client.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Upstream.RateLimit), cfg.Upstream.RateBurst)))
		}
		return opts
	}
	bills := client.NewBillClient(resolver.Endpoint(cfg.Consul.BillService), clientOpts()...)
	customers := client.NewCustomerClient(resolver.Endpoint(cfg.Consul.CustomerService), clientOpts()...)
	products := client.NewProductClient(resolver.Endpoint(cfg.Consul.ProductService), clientOpts()...)

	// Bill activity events are optional
	coordinatorOpts := []billing.Option{billing.WithRecorder(m), billing.WithLogger(log)}
	if cfg.RabbitMQ.Enabled {
		mq, err := messaging.NewRabbitMQ(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password, log)
		if err != nil {
			log.Warn("RabbitMQ unavailable, bill events disabled", zap.Error(err))
		} else {
			defer mq.Close()
			billPublisher, err := publisher.NewBillPublisher(mq)
			if err != nil {
				log.Fatal("Failed to create publisher", zap.Error(err))
			}
			coordinatorOpts = append(coordinatorOpts, billing.WithPublisher(billPublisher))
		}
	}

	store := newIdempotencyStore(cfg, log)
	defer store.Close()

	router := handlers.NewRouter(handlers.RouterConfig{
		Bills: handlers.NewBillHandler(
			bills,
			aggregator.New(bills, customers, products, aggregator.Options{Logger: log, Recorder: m}),
			billing.NewCoordinator(bills, coordinatorOpts...),
		),
		Customers:   handlers.NewCustomerHandler(customers),
		Products:    handlers.NewProductHandler(products),
		Health:      handlers.NewHealthHandler(cfg.App.Name, resolver),
		Idempotency: middleware.Idempotency(store, cfg.Idempotency.TTL),
		Metrics:     m.Handler(),
		Logger:      log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()
	log.Info("Billing console started",
		zap.String("addr", srv.Addr),
		zap.Any("upstreams", resolver.Snapshot()),
	)

	if consul != nil && cfg.Consul.ServiceID != "" {
		port, _ := strconv.Atoi(cfg.App.Port)
		err := consul.Register(discovery.ServiceConfig{
			Name: cfg.App.Name,
			ID:   cfg.Consul.ServiceID,
			Port: port,
			Tags: []string{"api", "console"},
		})
		if err != nil {
			log.Warn("Failed to register with Consul", zap.Error(err))
		} else {
			defer consul.Deregister(cfg.Consul.ServiceID)
		}
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}

// newIdempotencyStore prefers Redis so replicas share keys
func newIdempotencyStore(cfg *config.Config, log *zap.Logger) cache.IdempotencyStore {
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB, log)
		if err == nil {
			return store
		}
		log.Warn("Redis unavailable, idempotency keys kept in memory", zap.Error(err))
	}
	return cache.NewInMemoryIdempotencyStore()
}
