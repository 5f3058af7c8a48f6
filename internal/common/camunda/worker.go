// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// ReportTimeout bounds the complete, fail and throw-error commands a handler
// sends once its execute context is done with.
const ReportTimeout = 10 * time.Second

// ReportContext returns a fresh context for reporting a job outcome. The
// execute context may already be expired when the outcome is known.
func ReportContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ReportTimeout)
}

// HandlerFunc matches the Handle method every worker exposes.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerOptions are the per-task settings read from the workers section of
// the config.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Concurrency   int
}

// CamundaWorker is one open job subscription.
type CamundaWorker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. The handler is wrapped with the
// active-jobs gauge and duration histogram.
func NewWorker(client zbc.Client, taskType string, opts WorkerOptions, handler HandlerFunc, logger *zap.Logger) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(Instrument(taskType, handler)))

	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Concurrency > 0 {
		step = step.Concurrency(opts.Concurrency)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	w := &CamundaWorker{
		worker:   step.Open(),
		logger:   logger,
		taskType: taskType,
	}
	logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", opts.MaxJobsActive),
		zap.Duration("timeout", opts.Timeout),
	)
	return w
}

// TaskType reports the job type this worker subscribes to.
func (w *CamundaWorker) TaskType() string {
	return w.taskType
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}

// Instrument records the active-jobs gauge and job duration around handler.
func Instrument(taskType string, handler HandlerFunc) HandlerFunc {
	return func(client worker.JobClient, job entities.Job) {
		active := metrics.WorkerJobsActive.WithLabelValues(taskType)
		active.Inc()
		start := time.Now()
		defer func() {
			active.Dec()
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
		}()
		handler(client, job)
	}
}
