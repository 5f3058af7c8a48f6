// internal/matching/ranker.go
package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

const (
	DefaultMaxResults         = 10
	DefaultScoringConcurrency = 8

	directionDrivers = "drivers"
	directionLoads   = "loads"
)

// MatchScore is one ranked driver for a load.
type MatchScore struct {
	Driver      models.Driver `json:"driver"`
	Score       int           `json:"score"`
	Breakdown   Breakdown     `json:"breakdown"`
	Rank        int           `json:"rank"`
	IsBestMatch bool          `json:"isBestMatch"`
}

// LoadMatchScore is one ranked load for a driver.
type LoadMatchScore struct {
	Load        models.Load `json:"load"`
	Score       int         `json:"score"`
	Breakdown   Breakdown   `json:"breakdown"`
	Rank        int         `json:"rank"`
	IsBestMatch bool        `json:"isBestMatch"`
}

// Options controls driver ranking for a load.
type Options struct {
	OnlyAvailable       bool
	OnlyGreenCompliance bool
	// MaxResults caps the output after ranking; <= 0 means no cap.
	MaxResults int
	// Filters are extra eligibility predicates; all must pass.
	Filters []func(*models.Driver) bool
	// RunID tags logs for this call. Generated when empty.
	RunID string
}

func DefaultOptions() Options {
	return Options{
		OnlyAvailable:       true,
		OnlyGreenCompliance: true,
		MaxResults:          DefaultMaxResults,
	}
}

// LoadOptions controls load ranking for a driver. Only pending loads are
// ever eligible.
type LoadOptions struct {
	MaxResults int
	Filters    []func(*models.Load) bool
	RunID      string
}

func DefaultLoadOptions() LoadOptions {
	return LoadOptions{MaxResults: DefaultMaxResults}
}

// Ranker filters, scores and orders candidate pools.
type Ranker struct {
	scorer      *Scorer
	logger      logger.Logger
	concurrency int
	slowRanking time.Duration
}

type RankerOption func(*Ranker)

func WithRankerLogger(log logger.Logger) RankerOption {
	return func(r *Ranker) { r.logger = log }
}

// WithConcurrency bounds how many candidates are scored at once.
func WithConcurrency(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithSlowRankingThreshold logs a warning for rankings slower than d.
func WithSlowRankingThreshold(d time.Duration) RankerOption {
	return func(r *Ranker) { r.slowRanking = d }
}

func NewRanker(resolver CoordinateResolver, classifier ComplianceClassifier, opts ...RankerOption) *Ranker {
	r := &Ranker{
		scorer:      NewScorer(resolver, classifier),
		logger:      logger.NewNoOpLogger(),
		concurrency: DefaultScoringConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Ranker) Scorer() *Scorer {
	return r.scorer
}

type driverCandidate struct {
	driver *models.Driver
	status models.ComplianceStatus
}

// FindMatchingDrivers ranks drivers for a load. Drivers failing the
// eligibility predicates or the equipment gate never appear in the result.
// Equal scores keep their input order. The only error is ctx cancellation.
func (r *Ranker) FindMatchingDrivers(ctx context.Context, load *models.Load, drivers []models.Driver, opts Options) ([]MatchScore, error) {
	start := time.Now()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "matching.find_drivers")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("load.id", load.ID),
		attribute.Int("pool.size", len(drivers)),
	)

	var eligible []driverCandidate
	for i := range drivers {
		d := &drivers[i]
		if opts.OnlyAvailable && !d.IsAvailable() {
			continue
		}
		status := classify(r.scorer.classifier, d)
		if opts.OnlyGreenCompliance && status != models.ComplianceGreen {
			continue
		}
		if !passesAll(d, opts.Filters) {
			continue
		}
		eligible = append(eligible, driverCandidate{driver: d, status: status})
	}

	var compatible []driverCandidate
	for _, c := range eligible {
		if IsEquipmentCompatible(c.driver, load) {
			compatible = append(compatible, c)
		}
	}

	breakdowns, err := scoreAll(ctx, r.concurrency, compatible, func(ctx context.Context, c driverCandidate) Breakdown {
		return r.scorer.score(ctx, c.driver, load, c.status)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("driver ranking cancelled", map[string]interface{}{
			"runId":  runID,
			"loadId": load.ID,
			"error":  err.Error(),
		})
		return nil, err
	}

	results := make([]MatchScore, len(compatible))
	for i, c := range compatible {
		results[i] = MatchScore{
			Driver:    *c.driver,
			Score:     breakdowns[i].Total(),
			Breakdown: breakdowns[i],
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
		results[i].IsBestMatch = i == 0
	}
	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	r.observe(directionDrivers, runID, start, len(drivers), len(eligible), len(compatible), len(results), map[string]interface{}{
		"loadId": load.ID,
	})
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

// FindMatchingLoads ranks pending loads for a driver.
func (r *Ranker) FindMatchingLoads(ctx context.Context, driver *models.Driver, loads []models.Load, opts LoadOptions) ([]LoadMatchScore, error) {
	start := time.Now()
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "matching.find_loads")
	defer span.End()
	span.SetAttributes(
		attribute.String("run.id", runID),
		attribute.String("driver.id", driver.ID),
		attribute.Int("pool.size", len(loads)),
	)

	status := classify(r.scorer.classifier, driver)

	var eligible []*models.Load
	for i := range loads {
		l := &loads[i]
		if !l.IsPending() || !passesAll(l, opts.Filters) {
			continue
		}
		eligible = append(eligible, l)
	}

	var compatible []*models.Load
	for _, l := range eligible {
		if IsEquipmentCompatible(driver, l) {
			compatible = append(compatible, l)
		}
	}

	breakdowns, err := scoreAll(ctx, r.concurrency, compatible, func(ctx context.Context, l *models.Load) Breakdown {
		return r.scorer.score(ctx, driver, l, status)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("load ranking cancelled", map[string]interface{}{
			"runId":    runID,
			"driverId": driver.ID,
			"error":    err.Error(),
		})
		return nil, err
	}

	results := make([]LoadMatchScore, len(compatible))
	for i, l := range compatible {
		results[i] = LoadMatchScore{
			Load:      *l,
			Score:     breakdowns[i].Total(),
			Breakdown: breakdowns[i],
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	for i := range results {
		results[i].Rank = i + 1
		results[i].IsBestMatch = i == 0
	}
	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}

	r.observe(directionLoads, runID, start, len(loads), len(eligible), len(compatible), len(results), map[string]interface{}{
		"driverId": driver.ID,
	})
	span.SetAttributes(attribute.Int("results", len(results)))
	return results, nil
}

func passesAll[T any](candidate *T, filters []func(*T) bool) bool {
	for _, f := range filters {
		if f != nil && !f(candidate) {
			return false
		}
	}
	return true
}

// scoreAll scores candidates with at most limit in flight. Results keep the
// candidates' order. Cancellation is checked before each candidate starts.
func scoreAll[T any](ctx context.Context, limit int, candidates []T, score func(context.Context, T) Breakdown) ([]Breakdown, error) {
	out := make([]Breakdown, len(candidates))
	if len(candidates) == 0 {
		return out, ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range candidates {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = score(gctx, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// A resolver swallows cancellation as "unresolved", so a late cancel
	// must still fail the whole ranking.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Ranker) observe(direction, runID string, start time.Time, input, eligible, compatible, returned int, extra map[string]interface{}) {
	elapsed := time.Since(start)

	metrics.MatchingRankingDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
	metrics.MatchingCandidates.WithLabelValues("input").Add(float64(input))
	metrics.MatchingCandidates.WithLabelValues("eligible").Add(float64(eligible))
	metrics.MatchingCandidates.WithLabelValues("compatible").Add(float64(compatible))
	metrics.MatchingCandidates.WithLabelValues("returned").Add(float64(returned))

	fields := map[string]interface{}{
		"runId":      runID,
		"direction":  direction,
		"input":      input,
		"eligible":   eligible,
		"compatible": compatible,
		"returned":   returned,
		"durationMs": elapsed.Milliseconds(),
	}
	for k, v := range extra {
		fields[k] = v
	}

	r.logger.Info("ranking completed", fields)
	if r.slowRanking > 0 && elapsed > r.slowRanking {
		r.logger.Warn("slow ranking", fields)
	}
}
