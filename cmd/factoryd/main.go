package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"factory-status-backend/config"
	"factory-status-backend/internal/alert"
	"factory-status-backend/internal/api"
	"factory-status-backend/internal/db"
	"factory-status-backend/internal/factory"
	"factory-status-backend/internal/logger"
	"factory-status-backend/internal/store"
	"factory-status-backend/internal/supplychain"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("configuration loaded", "path", configPath)
	for _, w := range cfg.Warnings {
		log.Warn(w)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shift := factory.Shift{Start: cfg.Shift.StartAt, End: cfg.Shift.EndAt, Location: cfg.Shift.Location}

	if cfg.Bootstrap.Enabled {
		seed := cfg.Bootstrap.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		gen := factory.NewGenerator(generatorConfig(cfg.Bootstrap), rand.New(rand.NewPCG(seed, seed)))
		seeded, err := factory.NewBootstrapper(appStore, gen, shift, nil, log).Run(ctx)
		if err != nil {
			log.Fatal("failed to bootstrap factory data", "error", err)
		}
		if !seeded {
			log.Info("factory data already present, skipping bootstrap")
		}
	}

	aggregator := factory.NewAggregator(appStore, appStore)
	factorySvc := factory.NewService(appStore, appStore, appStore, nil)
	supplySvc := supplychain.NewService(appStore, aggregator, shift, nil)

	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
	} else {
		log.Warn("VAPID keys are not configured, push notifications are disabled")
	}

	if cfg.Alerts.Enabled && webpushOptions != nil {
		pool := alert.NewWorkerPool(cfg.Alerts.WorkerPoolSize, appStore, webpushOptions, log)
		go alert.NewMonitor(supplySvc, pool, cfg.Alerts.Interval, log).Run(ctx)
	}

	handler := api.NewHandler(api.Deps{
		Context:        ctx,
		Factory:        factorySvc,
		Output:         aggregator,
		SupplyChain:    supplySvc,
		Subscriptions:  appStore,
		Health:         appStore,
		WebPush:        webpushOptions,
		Location:       cfg.Shift.Location,
		StreamInterval: cfg.Stream.Interval,
		Log:            log,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(handler, cfg.Server),
	}

	// Start the server in a goroutine
	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server ListenAndServe failed", "error", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info("shutdown signal received, stopping services")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("server gracefully stopped")
}

func generatorConfig(b config.BootstrapConfig) factory.GeneratorConfig {
	return factory.GeneratorConfig{
		FailureProbability: b.FailureProbability,
		HealthyMin:         b.HealthyMin,
		DegradedMin:        b.DegradedMin,
		DegradedMax:        b.DegradedMax,
		TargetMin:          b.TargetMin,
		TargetMax:          b.TargetMax,
		StageUnitsMin:      b.StageUnitsMin,
		StageUnitsMax:      b.StageUnitsMax,
		DefectRateMin:      b.DefectRateMin,
		DefectRateMax:      b.DefectRateMax,
	}
}
