// internal/workers/matching/calculate-distance/models.go
package calculatedistance

type Input struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Output leaves DistanceMiles unset when either location cannot be resolved.
type Output struct {
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
	Resolved      bool     `json:"resolved"`
	LocationScore int      `json:"locationScore"`
}

const inputSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["from", "to"],
  "properties": {
    "from": {"type": "string", "minLength": 1},
    "to": {"type": "string", "minLength": 1}
  }
}`
