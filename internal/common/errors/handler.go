// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler turns worker errors into Zeebe fail or throw commands.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Decision is the outcome for one failed job.
type Decision struct {
	Err *StandardError
	// Retry fails the job with Retries left; otherwise a BPMN error is thrown.
	Retry   bool
	Retries int32
	BPMN    *BPMNError
}

// Decide picks retry or throw. Retries never exceed what the broker has left
// for the job.
func Decide(jobRetries int32, err error) Decision {
	stdErr := normalize(err)
	d := Decision{Err: stdErr, BPMN: ConvertToBPMNError(stdErr)}

	budget := int32(d.BPMN.Retries)
	if budget <= 0 || jobRetries <= 0 {
		return d
	}
	d.Retry = true
	d.Retries = budget
	if jobRetries < budget {
		d.Retries = jobRetries
	}
	return d
}

// HandleJobError reports err for job to the broker.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	d := Decide(job.Retries, err)
	fields := h.fields(job, d)

	var sendErr error
	if d.Retry {
		h.logger.Warn("job failed, will retry", fields)
		sendErr = h.failJob(ctx, client, job, d)
	} else {
		h.logger.Error("job failed", fields)
		sendErr = h.throwError(ctx, client, job, d)
	}
	if sendErr != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.Key,
			"error":  sendErr.Error(),
		})
	}
}

func normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return NewMatchingCancelledError(err)
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
	}
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) error {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(d.Retries).
		ErrorMessage(d.BPMN.Message)

	if vars, ok := errorVariables(d.BPMN); ok {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, err = withVars.Send(ctx)
			return err
		}
	}
	_, err := cmd.Send(ctx)
	return err
}

func (h *ErrorHandler) throwError(ctx context.Context, client worker.JobClient, job entities.Job, d Decision) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(d.BPMN.Code).
		ErrorMessage(d.BPMN.Message)

	if vars, ok := errorVariables(d.BPMN); ok {
		if withVars, err := cmd.VariablesFromString(vars); err == nil {
			_, err = withVars.Send(ctx)
			return err
		}
	}
	_, err := cmd.Send(ctx)
	return err
}

// errorVariables renders the BPMN error variables, reporting false when there
// are none to attach.
func errorVariables(bpmnErr *BPMNError) (string, bool) {
	vars := bpmnErr.ToErrorVariables()
	if len(vars) == 0 {
		return "", false
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func (h *ErrorHandler) fields(job entities.Job, d Decision) map[string]interface{} {
	return map[string]interface{}{
		"jobKey":          job.Key,
		"jobType":         job.Type,
		"processInstance": job.ProcessInstanceKey,
		"errorCode":       string(d.Err.Code),
		"bpmnErrorCode":   d.BPMN.Code,
		"category":        GetErrorCategory(d.Err.Code),
		"details":         d.Err.Details,
		"retry":           d.Retry,
		"retriesLeft":     d.Retries,
	}
}
