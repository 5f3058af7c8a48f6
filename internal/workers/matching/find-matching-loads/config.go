// internal/workers/matching/find-matching-loads/config.go
package findmatchingloads

import (
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
)

type Config struct {
	Timeout    time.Duration
	MaxResults int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    30 * time.Second,
		MaxResults: matching.DefaultMaxResults,
	}
}
