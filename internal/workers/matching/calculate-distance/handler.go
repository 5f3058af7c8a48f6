// internal/workers/matching/calculate-distance/handler.go
package calculatedistance

import (
	"context"
	"encoding/json"
	"math"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/camunda"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/validation"
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-distance"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Handler struct {
	config       *Config
	resolver     matching.CoordinateResolver
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, resolver matching.CoordinateResolver, log logger.Logger) *Handler {
	if resolver == nil {
		resolver = matching.FallbackResolver{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		resolver:     resolver,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if result := schema.ValidateJSON(job.Variables); !result.Valid {
		h.failJob(client, job, errors.NewInputValidationFailedError(result.Error()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, errors.NewInvalidMatchInputError(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	miles, ok := matching.DistanceBetween(ctx, h.resolver, input.From, input.To)
	if err := ctx.Err(); err != nil && !ok {
		return nil, errors.NewMatchingCancelledError(err)
	}

	if !ok {
		h.logger.Debug("distance unresolved", map[string]interface{}{
			"from": input.From,
			"to":   input.To,
		})
		return &Output{Resolved: false, LocationScore: matching.UnresolvedLocationScore}, nil
	}

	rounded := math.Round(miles*10) / 10
	return &Output{
		DistanceMiles: &rounded,
		Resolved:      true,
		LocationScore: matching.LocationScoreForDistance(miles),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()

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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := err.(*errors.StandardError); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	sendCtx, cancel := camunda.ReportContext()
	defer cancel()
	h.errorHandler.HandleJobError(sendCtx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
