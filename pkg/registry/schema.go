// pkg/registry/schema.go
package registry

import "time"

type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

// Activity describes one job type served by the worker manager.
type Activity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Version     string   `json:"version"`
	TaskType    string   `json:"taskType"`
	ErrorCodes  []string `json:"errorCodes"`
	// Timeout is a Go duration string, e.g. "30s".
	Timeout string   `json:"timeout"`
	Retries int      `json:"retries"`
	Tags    []string `json:"tags"`
}

// TimeoutDuration parses Timeout. An empty Timeout yields zero.
func (a Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}
