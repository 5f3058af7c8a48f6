// internal/common/camunda/camundatest/jobclient.go
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Completion is a complete-job command accepted by the gateway.
type Completion struct {
	JobKey    int64
	Variables string
}

// Failure is a fail-job command accepted by the gateway.
type Failure struct {
	JobKey       int64
	Retries      int32
	ErrorMessage string
}

// ThrownError is a throw-error command accepted by the gateway.
type ThrownError struct {
	JobKey       int64
	ErrorCode    string
	ErrorMessage string
}

// JobClient is a worker.JobClient backed by the real zeebe command builders.
// Its gateway refuses any command sent on a context that is already done, the
// way a gRPC call would, and records everything else.
type JobClient struct {
	gateway *gateway
}

func NewJobClient() *JobClient {
	return &JobClient{gateway: &gateway{}}
}

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

func (c *JobClient) Completions() []Completion {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]Completion(nil), c.gateway.completions...)
}

func (c *JobClient) Failures() []Failure {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]Failure(nil), c.gateway.failures...)
}

func (c *JobClient) ThrownErrors() []ThrownError {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]ThrownError(nil), c.gateway.thrown...)
}

// Rejected counts commands refused because their context was done.
func (c *JobClient) Rejected() int {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return c.gateway.rejected
}

func noRetry(context.Context, error) bool { return false }

// gateway implements only the job commands. Any other call panics on the nil
// embedded client.
type gateway struct {
	pb.GatewayClient

	mu          sync.Mutex
	completions []Completion
	failures    []Failure
	thrown      []ThrownError
	rejected    int
}

func (g *gateway) reject(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		g.rejected++
		return err
	}
	return nil
}

func (g *gateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.reject(ctx); err != nil {
		return nil, err
	}
	g.completions = append(g.completions, Completion{JobKey: in.GetJobKey(), Variables: in.GetVariables()})
	return &pb.CompleteJobResponse{}, nil
}

func (g *gateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.reject(ctx); err != nil {
		return nil, err
	}
	g.failures = append(g.failures, Failure{
		JobKey:       in.GetJobKey(),
		Retries:      in.GetRetries(),
		ErrorMessage: in.GetErrorMessage(),
	})
	return &pb.FailJobResponse{}, nil
}

func (g *gateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.reject(ctx); err != nil {
		return nil, err
	}
	g.thrown = append(g.thrown, ThrownError{
		JobKey:       in.GetJobKey(),
		ErrorCode:    in.GetErrorCode(),
		ErrorMessage: in.GetErrorMessage(),
	})
	return &pb.ThrowErrorResponse{}, nil
}
