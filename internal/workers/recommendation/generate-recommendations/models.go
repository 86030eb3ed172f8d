// internal/workers/recommendation/generate-recommendations/models.go
package generaterecommendations

import (
	"time"

	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"
)

type Input struct {
	UserID  int64                            `json:"userId"`
	Request *recommendation.RequestOverrides `json:"request,omitempty"`
}

type Output struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Count           int                     `json:"count"`
	GeneratedAt     time.Time               `json:"generatedAt"`
}
