// internal/common/camunda/worker_test.go
package camunda

import (
	"testing"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument_TracksActiveJobs(t *testing.T) {
	const taskType = "instrument-test"
	gauge := metrics.WorkerJobsActive.WithLabelValues(taskType)

	var during float64
	handler := Instrument(taskType, func(client worker.JobClient, job entities.Job) {
		during = testutil.ToFloat64(gauge)
	})

	handler(nil, entities.Job{})

	assert.Equal(t, float64(1), during)
	assert.Equal(t, float64(0), testutil.ToFloat64(gauge))
}
