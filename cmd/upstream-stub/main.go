package main

import (
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/prudhivi99/billing-console/internal/logger"
	"github.com/prudhivi99/billing-console/internal/stub"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix("STUB")
	v.AutomaticEnv()
	v.SetDefault("port", "8090")
	v.SetDefault("envelope", stub.EnvelopeArray)
	v.SetDefault("snake_case", false)
	v.SetDefault("seed", true)
	v.SetDefault("fake_records", 0)
	v.SetDefault("fake_seed", 1)
	v.SetDefault("env", "development")

	log := logger.NewForEnvironment(v.GetString("env"))
	defer log.Sync()

	server := stub.NewServer(stub.Options{
		Envelope:  v.GetString("envelope"),
		SnakeCase: v.GetBool("snake_case"),
		Logger:    log,
	})
	if v.GetBool("seed") {
		server.Seed()
	}
	if n := v.GetInt("fake_records"); n > 0 {
		server.SeedFake(n, v.GetUint64("fake_seed"))
	}

	addr := ":" + v.GetString("port")
	log.Info("Upstream stub starting",
		zap.String("addr", addr),
		zap.String("envelope", v.GetString("envelope")),
		zap.Bool("snake_case", v.GetBool("snake_case")),
		zap.Strings("endpoints", []string{"/api/customers", "/api/products", "/api/bills", "/health"}),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed to start", zap.Error(err))
	}
}
