// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"storefront-workers/internal/catalog/requestguard"
	"storefront-workers/internal/checkout"
	awsclients "storefront-workers/internal/common/aws"
	"storefront-workers/internal/common/camunda"
	"storefront-workers/internal/common/config"
	"storefront-workers/internal/common/database"
	"storefront-workers/internal/common/logger"
	"storefront-workers/internal/common/observability"
	"storefront-workers/internal/tradein"
	"storefront-workers/pkg/registry"

	// Catalog workers
	sp "storefront-workers/internal/workers/catalog/search-products"
	tdf "storefront-workers/internal/workers/catalog/translate-dynamic-filters"

	// Checkout workers
	rcs "storefront-workers/internal/workers/checkout/resolve-checkout-step"
	rti "storefront-workers/internal/workers/checkout/revalidate-trade-in"
	ucs "storefront-workers/internal/workers/checkout/update-checkout-session"

	// Trade-in workers
	atw "storefront-workers/internal/workers/tradein/advance-trade-in-wizard"
	ctv "storefront-workers/internal/workers/tradein/calculate-trade-in-value"
	fth "storefront-workers/internal/workers/tradein/fetch-trade-in-hierarchy"

	// Notification workers
	stn "storefront-workers/internal/workers/notification/send-trade-in-notification"
)

var connectRetry = &camunda.RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("environment", cfg.App.Environment))

	ctx := context.Background()

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.Observability.ServiceName,
		TracingEnabled: cfg.Observability.TracingEnabled,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		SampleRatio:    cfg.Observability.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.UsePlaintext,
		RetryConfig:            connectRetry,
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL (trade-in device hierarchy) ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres setup failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.Retry(ctx, connectRetry, "postgres ping", pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	if err := pg.RequireTables(ctx, database.TradeInTables...); err != nil {
		zapLog.Warn("trade-in hierarchy tables not ready", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Elasticsearch (product listing) ---
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch setup failed", zap.Error(err))
	}
	if err := camunda.Retry(ctx, connectRetry, "elasticsearch ping", esClient.Ping); err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	if ok, err := esClient.IndexExists(ctx, cfg.Catalog.ProductIndex); err != nil || !ok {
		zapLog.Warn("product index not ready", zap.String("index", cfg.Catalog.ProductIndex), zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Redis (sessions, request tokens, hierarchy cache) ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis setup failed", zap.Error(err))
	}
	defer rdb.Close()
	if err := camunda.Retry(ctx, connectRetry, "redis ping", rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	// --- Domain services ---
	catalogRegistry, err := registry.LoadRegistry(cfg.Catalog.RegistryPath)
	if err != nil {
		zapLog.Fatal("catalog registry load failed", zap.Error(err))
	}
	if issues := catalogRegistry.Validate(); registry.HasErrors(issues) {
		zapLog.Fatal("catalog registry is invalid", zap.Any("issues", issues))
	} else if len(issues) > 0 {
		zapLog.Warn("catalog registry has warnings", zap.Any("issues", issues))
	}

	guard := requestguard.New(rdb.Client, "", config.Seconds(cfg.Catalog.RequestTokenTTL))

	sessions := checkout.NewStore(rdb.Client, checkout.StoreOptions{
		KeyPrefix:      cfg.Checkout.KeyPrefix,
		TTL:            config.Seconds(cfg.Checkout.SessionTTL),
		MaxSaveRetries: cfg.Checkout.MaxSaveRetries,
		Logger:         log,
	})

	hierarchy := tradein.NewRepository(pg.GetDB(), rdb.Client, config.Seconds(cfg.TradeIn.HierarchyCacheTTL), log)

	senders, err := awsclients.NewSenders(ctx, cfg.Notifications)
	if err != nil {
		zapLog.Fatal("notification clients setup failed", zap.Error(err))
	}
	var emailSender stn.EmailSender
	if senders.Email != nil {
		emailSender = senders.Email
	}
	var smsSender stn.SMSSender
	if senders.SMS != nil {
		smsSender = senders.SMS
	}

	zapLog.Info("All domain services initialized")

	// --- Register workers ---
	manager := camunda.NewManager(zeebe.GetClient(), obs, log)
	start := func(taskType string, handler func() (jobHandler, error)) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if !wcfg.Enabled {
			manager.Start(taskType, wcfg, nil)
			return
		}
		h, err := handler()
		if err != nil {
			zapLog.Fatal("failed to create handler", zap.String("taskType", taskType), zap.Error(err))
		}
		manager.Start(taskType, wcfg, h.Handle)
	}

	// 1. Catalog
	start(tdf.TaskType, func() (jobHandler, error) {
		c := tdf.LoadConfig()
		c.Timeout = workerTimeout(cfg, tdf.TaskType, c.Timeout)
		return tdf.NewHandler(c, catalogRegistry, guard, log), nil
	})
	start(sp.TaskType, func() (jobHandler, error) {
		c := sp.LoadConfig()
		c.Timeout = workerTimeout(cfg, sp.TaskType, c.Timeout)
		c.DefaultIndex = cfg.Catalog.ProductIndex
		c.MaxSize = cfg.Catalog.MaxPageSize
		return sp.NewHandler(c, esClient.Client, guard, log), nil
	})

	// 2. Checkout
	start(ucs.TaskType, func() (jobHandler, error) {
		return ucs.NewHandler(ucs.HandlerOptions{AppConfig: cfg, Store: sessions, Logger: log})
	})
	start(rcs.TaskType, func() (jobHandler, error) {
		return rcs.NewHandler(rcs.HandlerOptions{AppConfig: cfg, Store: sessions, Logger: log})
	})
	start(rti.TaskType, func() (jobHandler, error) {
		return rti.NewHandler(rti.HandlerOptions{AppConfig: cfg, Store: sessions, Logger: log})
	})

	// 3. Trade-in
	start(fth.TaskType, func() (jobHandler, error) {
		c := fth.LoadConfig()
		c.Timeout = workerTimeout(cfg, fth.TaskType, c.Timeout)
		return fth.NewHandler(c, hierarchy, log), nil
	})
	start(atw.TaskType, func() (jobHandler, error) {
		c := atw.LoadConfig()
		c.Timeout = workerTimeout(cfg, atw.TaskType, c.Timeout)
		return atw.NewHandler(c, log), nil
	})
	start(ctv.TaskType, func() (jobHandler, error) {
		valuator, err := tradein.NewValuationClient(tradein.ValuationOptions{
			URL:             cfg.TradeIn.ValuationURL,
			Timeout:         config.GetDuration(cfg.TradeIn.ValuationTimeout),
			RateLimit:       cfg.TradeIn.RateLimit,
			Burst:           cfg.TradeIn.Burst,
			DefaultCurrency: cfg.TradeIn.Currency,
			Logger:          log,
		})
		if err != nil {
			return nil, err
		}
		return ctv.NewHandler(ctv.HandlerOptions{AppConfig: cfg, Valuator: valuator, Store: sessions, Logger: log})
	})

	// 4. Notifications
	start(stn.TaskType, func() (jobHandler, error) {
		return stn.NewHandler(stn.HandlerOptions{AppConfig: cfg, Email: emailSender, SMS: smsSender, Logger: log})
	})

	zapLog.Info("Workers registered", zap.Strings("running", manager.Running()))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := rdb.Ping(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	manager.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type jobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// workerTimeout prefers the worker's configured timeout over the package
// default.
func workerTimeout(cfg *config.Config, taskType string, fallback time.Duration) time.Duration {
	if wcfg, ok := cfg.Workers[taskType]; ok && wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	return fallback
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
