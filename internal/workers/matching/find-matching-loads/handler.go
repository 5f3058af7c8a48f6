// internal/workers/matching/find-matching-loads/handler.go
package findmatchingloads

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/camunda"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/observability"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/validation"
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
	"github.com/edwardxtra/xtrafleet-sub000/internal/repository"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	TaskType = "find-matching-loads"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Handler struct {
	config       *Config
	ranker       *matching.Ranker
	drivers      repository.DriverReader
	loads        repository.LoadReader
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(
	config *Config,
	ranker *matching.Ranker,
	drivers repository.DriverReader,
	loads repository.LoadReader,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ranker:       ranker,
		drivers:      drivers,
		loads:        loads,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if result := schema.ValidateJSON(job.Variables); !result.Valid {
		h.failJob(ctx, client, job, start, errors.NewInputValidationFailedError(result.Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, start, errors.NewInvalidMatchInputError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, start, err)
		return
	}

	h.completeJob(ctx, client, job, start, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := h.obs.StartSpan(ctx, TaskType)
	defer span.End()

	driver, err := h.resolveDriver(ctx, input)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("driver.id", driver.ID))

	pool := input.Loads
	if pool == nil {
		if h.loads == nil {
			return nil, errors.NewInvalidMatchInputError("loads were not supplied and no load store is configured")
		}
		pool, err = h.loads.ListPendingLoads(ctx)
		if err != nil {
			return nil, errors.NewCandidateFetchFailedError("load", err)
		}
	}

	opts := matching.LoadOptions{
		MaxResults: h.config.MaxResults,
		RunID:      uuid.NewString(),
	}
	if o := input.Options; o != nil {
		if o.MaxResults != nil {
			opts.MaxResults = *o.MaxResults
		}
		if owner := o.ExcludeOwnerID; owner != "" {
			opts.Filters = append(opts.Filters, func(l *models.Load) bool {
				return l.OwnerID != owner
			})
		}
	}

	matches, err := h.ranker.FindMatchingLoads(ctx, driver, pool, opts)
	if err != nil {
		return nil, errors.NewMatchingCancelledError(err)
	}

	resolver := h.ranker.Scorer().Resolver()
	output := &Output{
		RunID:          opts.RunID,
		DriverID:       driver.ID,
		Matches:        make([]LoadMatch, 0, len(matches)),
		CandidateCount: len(pool),
	}
	for _, m := range matches {
		match := LoadMatch{
			LoadID:       m.Load.ID,
			Origin:       m.Load.Origin,
			Destination:  m.Load.Destination,
			Score:        m.Score,
			Breakdown:    m.Breakdown,
			Rank:         m.Rank,
			IsBestMatch:  m.IsBestMatch,
			QualityLabel: matching.MatchQualityLabel(m.Score),
			Reasons:      matching.MatchReasons(m.Breakdown),
		}
		if miles, ok := matching.DistanceBetween(ctx, resolver, driver.Location, m.Load.Origin); ok {
			rounded := math.Round(miles*10) / 10
			match.DeadheadMiles = &rounded
		}
		if m.IsBestMatch {
			output.BestMatchLoadID = m.Load.ID
		}
		output.Matches = append(output.Matches, match)
	}

	h.obs.RecordRanked(ctx, "loads", len(output.Matches))
	h.logger.Info("loads ranked", map[string]interface{}{
		"runId":     output.RunID,
		"driverId":  driver.ID,
		"pool":      len(pool),
		"matches":   len(output.Matches),
		"bestMatch": output.BestMatchLoadID,
	})
	return output, nil
}

func (h *Handler) resolveDriver(ctx context.Context, input *Input) (*models.Driver, error) {
	if input.Driver != nil {
		return input.Driver, nil
	}
	if input.DriverID == "" {
		return nil, errors.NewInvalidMatchInputError("either driver or driverId is required")
	}
	if h.drivers == nil {
		return nil, errors.NewInvalidMatchInputError("driverId given but no driver store is configured")
	}
	return h.drivers.GetDriver(ctx, input.DriverID)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, output *Output) {
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	sendCtx, cancel := camunda.ReportContext()
	defer cancel()
	if _, err := cmd.Send(sendCtx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := err.(*errors.StandardError); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")

	sendCtx, cancel := camunda.ReportContext()
	defer cancel()
	h.errorHandler.HandleJobError(sendCtx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
