// internal/workers/matching/find-matching-drivers/handler.go
package findmatchingdrivers

import (
	"context"
	"encoding/json"
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
	TaskType = "find-matching-drivers"
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

	load, err := h.resolveLoad(ctx, input)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("load.id", load.ID))

	pool := input.Drivers
	if pool == nil {
		if h.drivers == nil {
			return nil, errors.NewInvalidMatchInputError("drivers were not supplied and no driver store is configured")
		}
		pool, err = h.drivers.ListActiveDrivers(ctx)
		if err != nil {
			return nil, errors.NewCandidateFetchFailedError("driver", err)
		}
	}

	opts := h.options(input.Options)
	matches, err := h.ranker.FindMatchingDrivers(ctx, load, pool, opts)
	if err != nil {
		return nil, errors.NewMatchingCancelledError(err)
	}

	output := &Output{
		RunID:          opts.RunID,
		LoadID:         load.ID,
		Matches:        make([]DriverMatch, 0, len(matches)),
		CandidateCount: len(pool),
	}
	for _, m := range matches {
		output.Matches = append(output.Matches, DriverMatch{
			DriverID:     m.Driver.ID,
			DriverName:   m.Driver.Name,
			Score:        m.Score,
			Breakdown:    m.Breakdown,
			Rank:         m.Rank,
			IsBestMatch:  m.IsBestMatch,
			QualityLabel: matching.MatchQualityLabel(m.Score),
			Reasons:      matching.MatchReasons(m.Breakdown),
			Availability: m.Driver.Availability,
		})
		if m.IsBestMatch {
			output.BestMatchDriverID = m.Driver.ID
		}
	}

	h.obs.RecordRanked(ctx, "drivers", len(output.Matches))
	h.logger.Info("drivers ranked", map[string]interface{}{
		"runId":     output.RunID,
		"loadId":    load.ID,
		"pool":      len(pool),
		"matches":   len(output.Matches),
		"bestMatch": output.BestMatchDriverID,
	})
	return output, nil
}

func (h *Handler) resolveLoad(ctx context.Context, input *Input) (*models.Load, error) {
	if input.Load != nil {
		return input.Load, nil
	}
	if input.LoadID == "" {
		return nil, errors.NewInvalidMatchInputError("either load or loadId is required")
	}
	if h.loads == nil {
		return nil, errors.NewInvalidMatchInputError("loadId given but no load store is configured")
	}
	return h.loads.GetLoad(ctx, input.LoadID)
}

// options overlays job options on the configured defaults.
func (h *Handler) options(in *MatchOptions) matching.Options {
	opts := matching.Options{
		OnlyAvailable:       h.config.OnlyAvailable,
		OnlyGreenCompliance: h.config.OnlyGreenCompliance,
		MaxResults:          h.config.MaxResults,
		RunID:               uuid.NewString(),
	}
	if in == nil {
		return opts
	}
	if in.OnlyAvailable != nil {
		opts.OnlyAvailable = *in.OnlyAvailable
	}
	if in.OnlyGreenCompliance != nil {
		opts.OnlyGreenCompliance = *in.OnlyGreenCompliance
	}
	if in.MaxResults != nil {
		opts.MaxResults = *in.MaxResults
	}
	if owner := in.ExcludeOwnerID; owner != "" {
		opts.Filters = append(opts.Filters, func(d *models.Driver) bool {
			return d.OwnerID != owner
		})
	}
	return opts
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
