// internal/recommendation/ports.go
package recommendation

import (
	"context"
	"errors"

	"bookreview-recommender/internal/models"
)

var (
	// ErrUserNotFound is returned by UserStore implementations and surfaced
	// unchanged by Recommend.
	ErrUserNotFound = errors.New("USER_NOT_FOUND")

	// ErrLookupFailed wraps any catalog, review, user or AI lookup failure.
	// It always aborts the whole call.
	ErrLookupFailed = errors.New("RECOMMENDATION_LOOKUP_FAILED")

	// ErrProviderUnavailable tells the orchestrator to skip the AI strategy.
	ErrProviderUnavailable = errors.New("AI_PROVIDER_UNAVAILABLE")

	ErrInvalidRequest = errors.New("INVALID_REQUEST")
)

type UserStore interface {
	FindUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
}

type ReviewStore interface {
	// FindReviewedBookIDs is unbounded; the result drives exclusion.
	FindReviewedBookIDs(ctx context.Context, userID int64) (models.BookIDSet, error)
	FindReviewedBooks(ctx context.Context, userID int64, maxCount int) ([]models.Book, error)
}

type Catalog interface {
	FindTopRatedBooks(ctx context.Context, minRating float64, minReviews, maxResults int) ([]models.Book, error)
	FindBooksByGenre(ctx context.Context, genre models.Genre, maxResults int) ([]models.Book, error)
}

// AIProvider is an optional external recommender. IsAvailable is a cheap,
// local capability check; GetRecommendations may legitimately return an
// empty slice.
type AIProvider interface {
	IsAvailable() bool
	GetRecommendations(ctx context.Context, profile *models.UserProfile, readBooks []models.Book, maxResults int) ([]models.Book, error)
}
