// internal/recommendation/strategy.go
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/metrics"
	"bookreview-recommender/internal/models"
)

const (
	topRatedPerRunCap = 5
	topRatedOverfetch = 2
	aiOverfetch       = 2
)

var fallbackGenres = []models.Genre{models.GenreFiction, models.GenreMystery, models.GenreRomance}

// Candidate is a book proposed by a strategy. Genre is set only by strategies
// that select per genre.
type Candidate struct {
	Book  models.Book
	Genre models.Genre
}

// StepInput is the read-only view of a run that a strategy fetches against.
type StepInput struct {
	UserID    int64
	Profile   *models.UserProfile
	Request   Request
	Remaining int

	admit func(bookID int64) bool
}

// Admits reports whether a book is neither excluded nor already emitted.
func (in StepInput) Admits(bookID int64) bool {
	if in.admit == nil {
		return true
	}
	return in.admit(bookID)
}

// Strategy is one recommendation algorithm. The orchestrator calls
// FetchCandidates, drops anything not admitted, keeps at most
// Quota(remaining) in fetch order and scores each with Score.
type Strategy interface {
	Kind() models.Strategy
	Enabled(req Request) bool
	Quota(remaining int) int
	FetchCandidates(ctx context.Context, in StepInput) ([]Candidate, error)
	Score(c Candidate, profile *models.UserProfile) (float64, string)
}

// --- TOP_RATED ---

type topRatedStrategy struct {
	catalog Catalog
}

func NewTopRatedStrategy(catalog Catalog) Strategy {
	return &topRatedStrategy{catalog: catalog}
}

func (s *topRatedStrategy) Kind() models.Strategy { return models.StrategyTopRated }

func (s *topRatedStrategy) Enabled(req Request) bool { return req.IncludeTopRated }

func (s *topRatedStrategy) Quota(remaining int) int {
	if remaining < topRatedPerRunCap {
		return remaining
	}
	return topRatedPerRunCap
}

func (s *topRatedStrategy) FetchCandidates(ctx context.Context, in StepInput) ([]Candidate, error) {
	books, err := s.catalog.FindTopRatedBooks(ctx, in.Request.MinRating, in.Request.MinReviewCount, topRatedOverfetch*in.Remaining)
	if err != nil {
		return nil, fmt.Errorf("%w: top rated books: %v", ErrLookupFailed, err)
	}
	out := make([]Candidate, 0, len(books))
	for _, b := range books {
		out = append(out, Candidate{Book: b})
	}
	return out, nil
}

func (s *topRatedStrategy) Score(c Candidate, _ *models.UserProfile) (float64, string) {
	return TopRatedScore(c.Book), TopRatedReason(c.Book)
}

// --- GENRE_SIMILARITY ---

type genreStrategy struct {
	catalog Catalog
}

func NewGenreStrategy(catalog Catalog) Strategy {
	return &genreStrategy{catalog: catalog}
}

func (s *genreStrategy) Kind() models.Strategy { return models.StrategyGenreSimilarity }

func (s *genreStrategy) Enabled(req Request) bool { return req.IncludeGenreBased }

func (s *genreStrategy) Quota(remaining int) int { return remaining }

// FetchCandidates walks the user's genres in declaration order and stops as
// soon as the budget is filled, so later genres are not queried needlessly.
func (s *genreStrategy) FetchCandidates(ctx context.Context, in StepInput) ([]Candidate, error) {
	genres := CandidateGenres(in.Profile)

	out := make([]Candidate, 0, in.Remaining)
	picked := models.NewBookIDSet()
	for _, genre := range genres {
		if len(out) >= in.Remaining {
			break
		}
		books, err := s.catalog.FindBooksByGenre(ctx, genre, in.Remaining)
		if err != nil {
			return nil, fmt.Errorf("%w: books for genre %s: %v", ErrLookupFailed, genre, err)
		}
		for _, b := range books {
			if len(out) >= in.Remaining {
				break
			}
			if picked.Contains(b.ID) || !in.Admits(b.ID) {
				continue
			}
			if b.TotalReviews < in.Request.MinReviewCount {
				continue
			}
			picked.Add(b.ID)
			out = append(out, Candidate{Book: b, Genre: genre})
		}
	}
	return out, nil
}

func (s *genreStrategy) Score(c Candidate, profile *models.UserProfile) (float64, string) {
	return GenreScore(c.Book, c.Genre, profile), GenreReason(c.Genre)
}

// CandidateGenres returns preferred ∪ favorite genres in declaration order,
// or FICTION, MYSTERY, ROMANCE when the user has neither.
func CandidateGenres(profile *models.UserProfile) []models.Genre {
	if profile == nil {
		return fallbackGenres
	}
	genres := profile.CandidateGenres().Ordered()
	if len(genres) == 0 {
		return fallbackGenres
	}
	return genres
}

// --- AI_POWERED ---

type aiStrategy struct {
	provider    AIProvider
	reviews     ReviewStore
	contextSize int
	timeout     time.Duration
	logger      logger.Logger
}

func NewAIStrategy(provider AIProvider, reviews ReviewStore, contextSize int, timeout time.Duration, log logger.Logger) Strategy {
	return &aiStrategy{
		provider:    provider,
		reviews:     reviews,
		contextSize: contextSize,
		timeout:     timeout,
		logger:      log.WithFields(map[string]interface{}{"strategy": string(models.StrategyAIPowered)}),
	}
}

func (s *aiStrategy) Kind() models.Strategy { return models.StrategyAIPowered }

func (s *aiStrategy) Enabled(req Request) bool {
	if !req.IncludeAIPowered || s.provider == nil {
		return false
	}
	if !s.provider.IsAvailable() {
		metrics.RecommendationAISkipped.WithLabelValues("unavailable").Inc()
		return false
	}
	return true
}

func (s *aiStrategy) Quota(remaining int) int { return remaining }

func (s *aiStrategy) FetchCandidates(ctx context.Context, in StepInput) ([]Candidate, error) {
	readBooks, err := s.reviews.FindReviewedBooks(ctx, in.UserID, s.contextSize)
	if err != nil {
		return nil, fmt.Errorf("%w: reviewed books: %v", ErrLookupFailed, err)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	books, err := s.provider.GetRecommendations(callCtx, in.Profile, readBooks, aiOverfetch*in.Remaining)
	if err != nil {
		switch {
		case errors.Is(err, ErrProviderUnavailable):
			s.skip(in.UserID, "unavailable", err)
			return nil, nil
		case ctx.Err() == nil && callCtx.Err() == context.DeadlineExceeded:
			s.skip(in.UserID, "timeout", err)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: ai provider: %v", ErrLookupFailed, err)
	}

	out := make([]Candidate, 0, len(books))
	for _, b := range books {
		out = append(out, Candidate{Book: b})
	}
	return out, nil
}

func (s *aiStrategy) skip(userID int64, reason string, err error) {
	metrics.RecommendationAISkipped.WithLabelValues(reason).Inc()
	s.logger.Warn("skipping ai recommendations", map[string]interface{}{
		"userId": userID,
		"reason": reason,
		"error":  err.Error(),
	})
}

func (s *aiStrategy) Score(c Candidate, _ *models.UserProfile) (float64, string) {
	return AIScore(c.Book), AIReason()
}
