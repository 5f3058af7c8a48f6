// pkg/registry/catalog.go
package registry

const categoryMatching = "matching"

// Builtin returns the activities shipped with the worker manager.
func Builtin() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01",
		Activities: []Activity{
			{
				ID:          "find-matching-drivers",
				DisplayName: "Find Matching Drivers",
				Description: "Ranks eligible drivers for a load by equipment, qualifications, distance, rating and compliance.",
				Category:    categoryMatching,
				Version:     "1.0.0",
				TaskType:    "find-matching-drivers",
				ErrorCodes: []string{
					"INPUT_VALIDATION_FAILED",
					"INVALID_MATCH_INPUT",
					"LOAD_NOT_FOUND",
					"CANDIDATE_FETCH_FAILED",
					"MATCHING_CANCELLED",
				},
				Timeout: "30s",
				Retries: 3,
				Tags:    []string{"drivers", "ranking"},
			},
			{
				ID:          "find-matching-loads",
				DisplayName: "Find Matching Loads",
				Description: "Ranks pending loads for a driver and reports deadhead miles to each origin.",
				Category:    categoryMatching,
				Version:     "1.0.0",
				TaskType:    "find-matching-loads",
				ErrorCodes: []string{
					"INPUT_VALIDATION_FAILED",
					"INVALID_MATCH_INPUT",
					"DRIVER_NOT_FOUND",
					"CANDIDATE_FETCH_FAILED",
					"MATCHING_CANCELLED",
				},
				Timeout: "30s",
				Retries: 3,
				Tags:    []string{"loads", "ranking"},
			},
			{
				ID:          "calculate-distance",
				DisplayName: "Calculate Distance",
				Description: "Great-circle miles between two free-text locations and the matching location score.",
				Category:    categoryMatching,
				Version:     "1.0.0",
				TaskType:    "calculate-distance",
				ErrorCodes:  []string{"INPUT_VALIDATION_FAILED", "MATCHING_CANCELLED"},
				Timeout:     "10s",
				Retries:     2,
				Tags:        []string{"geo"},
			},
		},
	}
}
