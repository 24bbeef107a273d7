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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/config"
	"github.com/prudhivi99/billing-console/internal/consumer"
	"github.com/prudhivi99/billing-console/internal/db"
	"github.com/prudhivi99/billing-console/internal/handlers"
	"github.com/prudhivi99/billing-console/internal/logger"
	"github.com/prudhivi99/billing-console/internal/messaging"
	"github.com/prudhivi99/billing-console/internal/publisher"
)

const serviceName = "console-audit-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log).With(zap.String("service", serviceName))
	defer log.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewPostgresDB(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	repo := db.NewAuditRepository(database)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password, log)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rabbitMQ.Close()

	auditConsumer := consumer.NewAuditConsumer(repo, log)
	for _, queue := range []string{publisher.BillCreatedQueue, publisher.BillDeletedQueue} {
		if err := rabbitMQ.DeclareQueue(queue); err != nil {
			log.Fatal("Failed to declare queue", zap.String("queue", queue), zap.Error(err))
		}
		messages, err := rabbitMQ.Consume(queue)
		if err != nil {
			log.Fatal("Failed to consume messages", zap.String("queue", queue), zap.Error(err))
		}
		go auditConsumer.Process(ctx, messages)
	}

	router := gin.New()
	router.Use(logger.Recovery(log), logger.GinMiddleware(log))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})
	router.GET("/events", handlers.NewAuditHandler(repo).ListEvents)

	srv := &http.Server{
		Addr:              ":" + cfg.Audit.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()
	log.Info("Audit service started", zap.String("addr", srv.Addr))

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
