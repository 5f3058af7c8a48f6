// internal/workers/matching/find-matching-drivers/config.go
package findmatchingdrivers

import (
	"time"

	"github.com/edwardxtra/xtrafleet-sub000/internal/matching"
)

type Config struct {
	Timeout             time.Duration
	OnlyAvailable       bool
	OnlyGreenCompliance bool
	MaxResults          int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:             30 * time.Second,
		OnlyAvailable:       true,
		OnlyGreenCompliance: true,
		MaxResults:          matching.DefaultMaxResults,
	}
}
