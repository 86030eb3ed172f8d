// internal/workers/recommendation/send-recommendation-digest/config.go
package sendrecommendationdigest

import "time"

type Config struct {
	EmailEnabled bool
	FromEmail    string
	Subject      string
	TopicARN     string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Subject: "Your book recommendations",
		Timeout: 30 * time.Second,
	}
}
