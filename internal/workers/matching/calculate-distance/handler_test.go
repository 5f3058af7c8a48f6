// internal/workers/matching/calculate-distance/handler_test.go
package calculatedistance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/common/camunda/camundatest"
	apperrors "github.com/edwardxtra/xtrafleet-sub000/internal/common/errors"
	"github.com/edwardxtra/xtrafleet-sub000/internal/common/logger"
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unresolvable struct{}

func (unresolvable) Resolve(context.Context, string) (matching.Coordinate, bool) {
	return matching.Coordinate{}, false
}

func TestHandler_Execute_Fallback(t *testing.T) {
	h := NewHandler(LoadConfig(), nil, logger.NewTestLogger(t))

	tests := []struct {
		name      string
		input     Input
		resolved  bool
		wantMiles float64
		wantScore int
	}{
		{
			name:      "miami to atlanta",
			input:     Input{From: "Miami, FL", To: "Atlanta, GA"},
			resolved:  true,
			wantMiles: 604,
			wantScore: 14,
		},
		{
			name:      "same city",
			input:     Input{From: "Dallas, TX", To: "dallas, tx"},
			resolved:  true,
			wantMiles: 0,
			wantScore: 35,
		},
		{
			name:      "unknown location",
			input:     Input{From: "Omaha, NE", To: "Miami, FL"},
			resolved:  false,
			wantScore: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.resolved, out.Resolved)
			assert.Equal(t, tt.wantScore, out.LocationScore)
			if !tt.resolved {
				assert.Nil(t, out.DistanceMiles)
				return
			}
			require.NotNil(t, out.DistanceMiles)
			assert.InDelta(t, tt.wantMiles, *out.DistanceMiles, 10)
		})
	}
}

func TestHandler_Execute_Geocoded(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"37.7749","lon":"-122.4194"}]`))
	}))
	defer server.Close()

	geocoder := matching.NewNominatimGeocoder(matching.NominatimConfig{BaseURL: server.URL})
	resolver := matching.NewGeocodingResolver(geocoder, matching.WithRegions(matching.ParseRegions([]string{"WV"})))
	h := NewHandler(LoadConfig(), resolver, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{From: "Bluefield, WV", To: "Bluefield, WV"})
	require.NoError(t, err)
	assert.True(t, out.Resolved)
	assert.Equal(t, 35, out.LocationScore)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	h := NewHandler(LoadConfig(), unresolvable{}, logger.NewTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{From: "a", To: "b"})
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeMatchingCancelled, stdErr.Code)
}

func TestHandler_Handle_CompletesAfterDeadline(t *testing.T) {
	h := NewHandler(&Config{Timeout: -time.Second}, nil, logger.NewTestLogger(t))
	client := camundatest.NewJobClient()

	h.Handle(client, entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       9,
		Retries:   3,
		Variables: `{"from":"Dallas, TX","to":"Dallas, TX"}`,
	}})

	assert.Zero(t, client.Rejected())
	completions := client.Completions()
	require.Len(t, completions, 1)
	assert.Equal(t, int64(9), completions[0].JobKey)

	var out Output
	require.NoError(t, json.Unmarshal([]byte(completions[0].Variables), &out))
	assert.True(t, out.Resolved)
	assert.Equal(t, 35, out.LocationScore)
}

func TestHandler_Handle_MissingLocationThrows(t *testing.T) {
	client := camundatest.NewJobClient()
	NewHandler(LoadConfig(), nil, logger.NewTestLogger(t)).Handle(client, entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       9,
		Retries:   3,
		Variables: `{"from":"Dallas, TX"}`,
	}})

	thrown := client.ThrownErrors()
	require.Len(t, thrown, 1)
	assert.Equal(t, "INVALID_MATCH_INPUT", thrown[0].ErrorCode)
	assert.Empty(t, client.Completions())
}

func TestInputSchema(t *testing.T) {
	assert.True(t, schema.ValidateJSON(`{"from":"Miami, FL","to":"Atlanta, GA"}`).Valid)
	assert.False(t, schema.ValidateJSON(`{"from":"Miami, FL"}`).Valid)
	assert.False(t, schema.ValidateJSON(`{"from":"","to":"x"}`).Valid)
	assert.False(t, schema.ValidateJSON(`{"from":1,"to":"x"}`).Valid)
}
