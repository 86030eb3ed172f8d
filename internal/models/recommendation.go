package models

import "time"

type Strategy string

const (
	StrategyTopRated            Strategy = "TOP_RATED"
	StrategyGenreSimilarity     Strategy = "GENRE_SIMILARITY"
	StrategyFavoritesSimilarity Strategy = "FAVORITES_SIMILARITY"
	StrategyAIPowered           Strategy = "AI_POWERED"
)

// Recommendation is built fresh for every request and never persisted.
// UserID is nil for anonymous top-rated listings.
type Recommendation struct {
	UserID    *int64    `json:"userId,omitempty"`
	Book      Book      `json:"book"`
	Strategy  Strategy  `json:"strategy"`
	Reason    string    `json:"reason"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}
