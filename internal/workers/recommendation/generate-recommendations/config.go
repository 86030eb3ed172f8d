// internal/workers/recommendation/generate-recommendations/config.go
package generaterecommendations

import (
	"time"

	"bookreview-recommender/internal/recommendation"
)

type Config struct {
	Timeout  time.Duration
	Defaults recommendation.Request
}

func LoadConfig() *Config {
	return &Config{
		Timeout:  30 * time.Second,
		Defaults: recommendation.DefaultRequest(),
	}
}
