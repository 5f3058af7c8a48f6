// internal/workers/matching/find-matching-loads/models.go
package findmatchingloads

import (
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

// Input carries either an inline driver or its id. When loads is omitted the
// pending loads are read from the database.
type Input struct {
	DriverID string         `json:"driverId,omitempty"`
	Driver   *models.Driver `json:"driver,omitempty"`
	Loads    []models.Load  `json:"loads,omitempty"`
	Options  *MatchOptions  `json:"options,omitempty"`
}

type MatchOptions struct {
	MaxResults     *int   `json:"maxResults,omitempty"`
	ExcludeOwnerID string `json:"excludeOwnerId,omitempty"`
}

type Output struct {
	RunID           string      `json:"runId"`
	DriverID        string      `json:"driverId"`
	Matches         []LoadMatch `json:"matches"`
	BestMatchLoadID string      `json:"bestMatchLoadId,omitempty"`
	CandidateCount  int         `json:"candidateCount"`
}

type LoadMatch struct {
	LoadID       string             `json:"loadId"`
	Origin       string             `json:"origin"`
	Destination  string             `json:"destination"`
	Score        int                `json:"score"`
	Breakdown    matching.Breakdown `json:"breakdown"`
	Rank         int                `json:"rank"`
	IsBestMatch  bool               `json:"isBestMatch"`
	QualityLabel string             `json:"qualityLabel"`
	Reasons      []string           `json:"reasons"`
	// DeadheadMiles is the distance from the driver to the pickup, when both
	// locations resolve.
	DeadheadMiles *float64 `json:"deadheadMiles,omitempty"`
}

const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "driverId": {"type": "string", "minLength": 1},
    "driver": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "location": {"type": "string"},
        "trailerTypes": {"type": "array", "items": {"type": "string"}},
        "certifications": {"type": "array", "items": {"type": "string"}},
        "rating": {"type": "number"}
      }
    },
    "loads": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "status": {"type": "string"},
          "requiredQualifications": {"type": "array", "items": {"type": "string"}}
        }
      }
    },
    "options": {
      "type": "object",
      "properties": {
        "maxResults": {"type": "integer", "minimum": 0},
        "excludeOwnerId": {"type": "string"}
      }
    }
  },
  "anyOf": [
    {"required": ["driverId"]},
    {"required": ["driver"]}
  ]
}`
