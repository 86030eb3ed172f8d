// internal/workers/recommendation/send-recommendation-digest/models.go
package sendrecommendationdigest

import "bookreview-recommender/internal/models"

type Input struct {
	UserID          int64                   `json:"userId"`
	Email           string                  `json:"email" validate:"required,email"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

const (
	StatusSent     = "SENT"
	StatusDisabled = "DISABLED"
	StatusSkipped  = "SKIPPED"
)

type Output struct {
	DigestID  string `json:"digestId"`
	Sent      bool   `json:"sent"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Count     int    `json:"count"`
	SentAt    string `json:"sentAt"`
}

// DigestEvent is published to the notifications topic once a digest is sent.
type DigestEvent struct {
	DigestID  string `json:"digestId"`
	UserID    int64  `json:"userId"`
	Count     int    `json:"count"`
	MessageID string `json:"messageId"`
	SentAt    string `json:"sentAt"`
}
