// internal/recommendation/scoring.go
package recommendation

import (
	"fmt"
	"math"
	"strconv"

	"bookreview-recommender/internal/models"
)

const (
	topRatedRatingWeight = 0.7
	topRatedReviewWeight = 0.3
	reviewSaturation     = 100.0

	preferredGenreBonus = 0.2
	inferredGenreBonus  = 0.1

	aiScore  = 0.9
	aiReason = "AI-powered recommendation based on your reading history and preferences"
)

// TopRatedScore weighs rating at 70% and review volume at 30%, with the
// volume term saturating at 100 reviews.
func TopRatedScore(book models.Book) float64 {
	ratingScore := book.AverageRating / 5.0
	reviewScore := math.Min(float64(book.TotalReviews)/reviewSaturation, 1.0)
	return ratingScore*topRatedRatingWeight + reviewScore*topRatedReviewWeight
}

func TopRatedReason(book models.Book) string {
	return fmt.Sprintf("This book has an excellent rating of %s based on %d reviews",
		strconv.FormatFloat(book.AverageRating, 'f', -1, 64), book.TotalReviews)
}

// GenreScore adds a flat bonus to the normalised rating: 0.2 when the user
// declared the genre, 0.1 when it was only inferred from favorites.
func GenreScore(book models.Book, genre models.Genre, profile *models.UserProfile) float64 {
	bonus := inferredGenreBonus
	if profile != nil && profile.Prefers(genre) {
		bonus = preferredGenreBonus
	}
	return math.Min(book.AverageRating/5.0+bonus, 1.0)
}

func GenreReason(genre models.Genre) string {
	return "Based on your interest in " + genre.DisplayName() + " books"
}

func AIScore(models.Book) float64 { return aiScore }

func AIReason() string { return aiReason }
