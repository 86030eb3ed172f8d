// internal/recommendation/service.go
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/metrics"
	"bookreview-recommender/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "bookreview-recommender/recommendation"

type Config struct {
	AIContextSize int
	AITimeout     time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		AIContextSize: 50,
		AITimeout:     5 * time.Second,
	}
}

// Service is the recommendation orchestrator. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	config     *Config
	users      UserStore
	reviews    ReviewStore
	strategies []Strategy
	tracer     trace.Tracer
	logger     logger.Logger
	now        func() time.Time
}

// NewService wires the three strategies in priority order: TOP_RATED,
// GENRE_SIMILARITY, AI_POWERED. ai may be nil.
func NewService(config *Config, users UserStore, reviews ReviewStore, catalog Catalog, ai AIProvider, log logger.Logger) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"component": "recommendation"})
	return &Service{
		config:  config,
		users:   users,
		reviews: reviews,
		strategies: []Strategy{
			NewTopRatedStrategy(catalog),
			NewGenreStrategy(catalog),
			NewAIStrategy(ai, reviews, config.AIContextSize, config.AITimeout, log),
		},
		tracer: otel.Tracer(tracerName),
		logger: log,
		now:    time.Now,
	}
}

// WithStrategies replaces the strategy chain. Order is priority order.
func (s *Service) WithStrategies(strategies ...Strategy) *Service {
	s.strategies = strategies
	return s
}

// foldState is threaded through the strategy chain. Each step returns a new
// value and never mutates the one it received.
type foldState struct {
	collected []models.Recommendation
	emitted   models.BookIDSet
	excluded  models.BookIDSet
}

func newFoldState(excluded models.BookIDSet) foldState {
	if excluded == nil {
		excluded = models.NewBookIDSet()
	}
	return foldState{
		collected: []models.Recommendation{},
		emitted:   models.NewBookIDSet(),
		excluded:  excluded,
	}
}

func (st foldState) remaining(limit int) int {
	if r := limit - len(st.collected); r > 0 {
		return r
	}
	return 0
}

func (st foldState) admits(bookID int64) bool {
	return !st.excluded.Contains(bookID) && !st.emitted.Contains(bookID)
}

// Recommend returns at most req.Limit recommendations for userID. Unknown
// users yield ErrUserNotFound; any collaborator failure yields
// ErrLookupFailed and no partial result.
func (s *Service) Recommend(ctx context.Context, userID int64, req Request) ([]models.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.Recommend",
		trace.WithAttributes(attribute.Int64("user.id", userID), attribute.Int("request.limit", req.Limit)))
	defer span.End()

	profile, err := s.users.FindUserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			span.SetStatus(codes.Error, "user not found")
			return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("%w: user profile: %v", ErrLookupFailed, err)
	}
	if profile == nil {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}

	if req.Limit <= 0 || !req.anyStrategy() {
		return []models.Recommendation{}, nil
	}

	excluded, err := s.reviews.FindReviewedBookIDs(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: reviewed book ids: %v", ErrLookupFailed, err)
	}

	uid := userID
	result, err := s.run(ctx, &uid, profile, newFoldState(excluded), req, s.strategies)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.logger.Info("recommendations generated", map[string]interface{}{
		"userId":   userID,
		"limit":    req.Limit,
		"returned": len(result),
		"excluded": len(excluded),
	})
	return result, nil
}

// RecommendTopRated serves anonymous callers: only the top-rated strategy
// runs, nothing is excluded and results carry no user id.
func (s *Service) RecommendTopRated(ctx context.Context, req Request) ([]models.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.RecommendTopRated")
	defer span.End()

	if req.Limit <= 0 {
		return []models.Recommendation{}, nil
	}

	var chain []Strategy
	for _, strat := range s.strategies {
		if strat.Kind() == models.StrategyTopRated {
			chain = append(chain, strat)
		}
	}

	req = TopRatedRequest(req.Limit, req.MinRating, req.MinReviewCount)
	result, err := s.run(ctx, nil, nil, newFoldState(nil), req, chain)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return result, nil
}

func (s *Service) run(ctx context.Context, userID *int64, profile *models.UserProfile, st foldState, req Request, chain []Strategy) ([]models.Recommendation, error) {
	var err error
	for _, strat := range chain {
		if st.remaining(req.Limit) == 0 {
			break
		}
		if !strat.Enabled(req) {
			continue
		}
		st, err = s.step(ctx, strat, userID, profile, req, st)
		if err != nil {
			return nil, err
		}
	}

	if len(st.collected) > req.Limit {
		st.collected = st.collected[:req.Limit]
	}
	return st.collected, nil
}

// step runs one strategy against the current fold state and returns the
// next state.
func (s *Service) step(ctx context.Context, strat Strategy, userID *int64, profile *models.UserProfile, req Request, st foldState) (foldState, error) {
	ctx, span := s.tracer.Start(ctx, "recommendation.strategy."+string(strat.Kind()))
	defer span.End()

	remaining := st.remaining(req.Limit)
	in := StepInput{
		Profile:   profile,
		Request:   req,
		Remaining: remaining,
		admit:     st.admits,
	}
	if userID != nil {
		in.UserID = *userID
	}

	candidates, err := strat.FetchCandidates(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return st, err
	}

	quota := strat.Quota(remaining)
	next := foldState{
		collected: append([]models.Recommendation(nil), st.collected...),
		emitted:   st.emitted.Clone(),
		excluded:  st.excluded,
	}
	added := 0
	now := s.now()
	for _, c := range candidates {
		if added >= quota {
			break
		}
		if !next.admits(c.Book.ID) {
			continue
		}
		score, reason := strat.Score(c, profile)
		next.collected = append(next.collected, models.Recommendation{
			UserID:    userID,
			Book:      c.Book,
			Strategy:  strat.Kind(),
			Reason:    reason,
			Score:     score,
			CreatedAt: now,
		})
		next.emitted.Add(c.Book.ID)
		added++
	}

	span.SetAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("added", added))
	metrics.RecommendationItems.WithLabelValues(string(strat.Kind())).Add(float64(added))
	s.logger.Debug("strategy step complete", map[string]interface{}{
		"strategy":   string(strat.Kind()),
		"candidates": len(candidates),
		"added":      added,
		"remaining":  next.remaining(req.Limit),
	})
	return next, nil
}
