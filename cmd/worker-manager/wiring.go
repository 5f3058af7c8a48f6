// cmd/worker-manager/wiring.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/camunda"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/config"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/database"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/compliance"
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
	"github.com/edwardxtra/xtrafleet-sub000/pkg/registry"
)

// buildResolver returns the geocoding resolver when geocoding is enabled and
// the table-only resolver otherwise. A nil rdb keeps the cache in memory.
func buildResolver(cfg *config.Config, rdb *database.RedisClient, log logger.Logger) matching.CoordinateResolver {
	if !cfg.Geocoding.Enabled {
		log.Info("geocoding disabled, using fallback table only", nil)
		return matching.FallbackResolver{}
	}

	geocoder := matching.NewNominatimGeocoder(matching.NominatimConfig{
		BaseURL:           cfg.Geocoding.BaseURL,
		UserAgent:         cfg.Geocoding.UserAgent,
		Timeout:           cfg.Geocoding.Timeout(),
		RequestsPerSecond: cfg.Geocoding.RequestsPerSecond,
	})

	var cache matching.GeocodeCache = matching.NewMemoryGeocodeCache()
	if rdb != nil {
		shared := matching.NewRedisGeocodeCache(rdb.Client, cfg.Geocoding.RedisPrefix, cfg.Geocoding.CacheTTL(), log)
		cache = matching.NewTieredGeocodeCache(cache, shared)
	}

	log.Info("geocoding enabled", map[string]interface{}{
		"baseUrl":     cfg.Geocoding.BaseURL,
		"regions":     cfg.Geocoding.EnabledRegions,
		"sharedCache": rdb != nil,
	})
	return matching.NewGeocodingResolver(geocoder,
		matching.WithGeocodeCache(cache),
		matching.WithRegions(matching.ParseRegions(cfg.Geocoding.EnabledRegions)),
		matching.WithResolverLogger(log),
	)
}

func buildRanker(cfg *config.Config, resolver matching.CoordinateResolver, log logger.Logger) *matching.Ranker {
	classifier := compliance.NewExpiryClassifier(
		compliance.WithWarningWindow(time.Duration(cfg.Compliance.WarningWindowDays) * 24 * time.Hour),
	)
	return matching.NewRanker(resolver, classifier,
		matching.WithRankerLogger(log),
		matching.WithConcurrency(cfg.Matching.ScoringConcurrency),
		matching.WithSlowRankingThreshold(config.GetDuration(cfg.Matching.SlowRankingMs)),
	)
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// newHealthHandler serves liveness, readiness and Prometheus metrics.
func newHealthHandler(broker healthChecker, db pinger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"zeebe": "ok", "postgres": "ok"}
		status := http.StatusOK
		if err := broker.HealthCheck(ctx); err != nil {
			checks["zeebe"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := db.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		label := "ready"
		if status != http.StatusOK {
			label = "not_ready"
		}
		writeStatus(w, status, label, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return otelhttp.NewHandler(mux, "health-server")
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if checks != nil {
		body["checks"] = checks
	}
	_ = json.NewEncoder(w).Encode(body)
}

// workerOptions maps a worker's config onto Zeebe worker options. A zero
// configured timeout falls back to the activity's catalog timeout.
func workerOptions(reg *registry.ActivityRegistry, taskType string, wcfg config.WorkerConfig) (camunda.WorkerOptions, registry.Activity) {
	opts := camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       config.GetDuration(wcfg.Timeout),
	}
	activity, ok := reg.Lookup(taskType)
	if !ok {
		activity = registry.Activity{TaskType: taskType, DisplayName: taskType}
	}
	if opts.Timeout <= 0 {
		if d, err := activity.TimeoutDuration(); err == nil {
			opts.Timeout = d
		}
	}
	return opts, activity
}
