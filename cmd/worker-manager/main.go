// cmd/worker-manager/main.go
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

	"go.uber.org/zap"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/camunda"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/config"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/database"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/observability"
	"github.com/edwardxtra/xtrafleet-sub000/internal/repository"
	"github.com/edwardxtra/xtrafleet-sub000/pkg/registry"

	cd "github.com/edwardxtra/xtrafleet-sub000/internal/workers/matching/calculate-distance"
	fmd "github.com/edwardxtra/xtrafleet-sub000/internal/workers/matching/find-matching-drivers"
	fml "github.com/edwardxtra/xtrafleet-sub000/internal/workers/matching/find-matching-loads"
)

func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis (optional shared geocode cache) ---
	var rdb *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, geocode cache stays process-local", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Matching engine ---
	resolver := buildResolver(cfg, rdb, log)
	ranker := buildRanker(cfg, resolver, log)
	repo := repository.NewPostgres(pg.DB, repository.WithQueryTimeout(config.GetDuration(cfg.Camunda.RequestTimeout)))

	// --- Workers ---
	catalog := registry.Builtin()
	var workers []*camunda.CamundaWorker

	if wcfg := config.GetWorkerConfig(cfg, fmd.TaskType); wcfg.Enabled {
		opts, activity := workerOptions(catalog, fmd.TaskType, wcfg)
		handler := fmd.NewHandler(
			&fmd.Config{
				Timeout:             opts.Timeout,
				OnlyAvailable:       *cfg.Matching.OnlyAvailable,
				OnlyGreenCompliance: *cfg.Matching.OnlyGreenCompliance,
				MaxResults:          cfg.Matching.MaxResults,
			},
			ranker, repo, repo, obs, log,
		)
		workers = append(workers, startWorker(zeebe, activity, opts, handler.Handle, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, fml.TaskType); wcfg.Enabled {
		opts, activity := workerOptions(catalog, fml.TaskType, wcfg)
		handler := fml.NewHandler(
			&fml.Config{
				Timeout:    opts.Timeout,
				MaxResults: cfg.Matching.MaxResults,
			},
			ranker, repo, repo, obs, log,
		)
		workers = append(workers, startWorker(zeebe, activity, opts, handler.Handle, zapLog))
	}

	if wcfg := config.GetWorkerConfig(cfg, cd.TaskType); wcfg.Enabled {
		opts, activity := workerOptions(catalog, cd.TaskType, wcfg)
		handler := cd.NewHandler(
			&cd.Config{Timeout: opts.Timeout},
			resolver, log,
		)
		workers = append(workers, startWorker(zeebe, activity, opts, handler.Handle, zapLog))
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newHealthHandler(zeebe, pg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client *camunda.Client, activity registry.Activity, opts camunda.WorkerOptions, handlerFunc camunda.HandlerFunc, log *zap.Logger) *camunda.CamundaWorker {
	log.Info("starting worker",
		zap.String("taskType", activity.TaskType),
		zap.String("activity", activity.DisplayName),
		zap.Duration("timeout", opts.Timeout))
	return camunda.NewWorker(client.GetClient(), activity.TaskType, opts, handlerFunc, log)
}
