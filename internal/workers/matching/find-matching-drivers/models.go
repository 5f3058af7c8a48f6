// internal/workers/matching/find-matching-drivers/models.go
package findmatchingdrivers

import (
	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
	"github.com/edwardxtra/xtrafleet-sub000/internal/models"
)

// Input carries either an inline load or its id. When drivers is omitted the
// active driver pool is read from the database.
type Input struct {
	LoadID  string          `json:"loadId,omitempty"`
	Load    *models.Load    `json:"load,omitempty"`
	Drivers []models.Driver `json:"drivers,omitempty"`
	Options *MatchOptions   `json:"options,omitempty"`
}

type MatchOptions struct {
	OnlyAvailable       *bool  `json:"onlyAvailable,omitempty"`
	OnlyGreenCompliance *bool  `json:"onlyGreenCompliance,omitempty"`
	MaxResults          *int   `json:"maxResults,omitempty"`
	ExcludeOwnerID      string `json:"excludeOwnerId,omitempty"`
}

type Output struct {
	RunID             string        `json:"runId"`
	LoadID            string        `json:"loadId"`
	Matches           []DriverMatch `json:"matches"`
	BestMatchDriverID string        `json:"bestMatchDriverId,omitempty"`
	CandidateCount    int           `json:"candidateCount"`
}

type DriverMatch struct {
	DriverID     string              `json:"driverId"`
	DriverName   string              `json:"driverName"`
	Score        int                 `json:"score"`
	Breakdown    matching.Breakdown  `json:"breakdown"`
	Rank         int                 `json:"rank"`
	IsBestMatch  bool                `json:"isBestMatch"`
	QualityLabel string              `json:"qualityLabel"`
	Reasons      []string            `json:"reasons"`
	Availability models.Availability `json:"availability"`
}

const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "loadId": {"type": "string", "minLength": 1},
    "load": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "origin": {"type": "string"},
        "trailerType": {"type": "string"},
        "requiredQualifications": {"type": "array", "items": {"type": "string"}}
      }
    },
    "drivers": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "trailerTypes": {"type": "array", "items": {"type": "string"}},
          "certifications": {"type": "array", "items": {"type": "string"}},
          "rating": {"type": "number"}
        }
      }
    },
    "options": {
      "type": "object",
      "properties": {
        "onlyAvailable": {"type": "boolean"},
        "onlyGreenCompliance": {"type": "boolean"},
        "maxResults": {"type": "integer", "minimum": 0},
        "excludeOwnerId": {"type": "string"}
      }
    }
  },
  "anyOf": [
    {"required": ["loadId"]},
    {"required": ["load"]}
  ]
}`
