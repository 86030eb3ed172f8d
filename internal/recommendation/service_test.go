// internal/recommendation/service_test.go
package recommendation

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===== Test Helper Functions =====

type fakeUsers struct {
	profiles map[int64]*models.UserProfile
	err      error
}

func (f *fakeUsers) FindUserProfile(_ context.Context, userID int64) (*models.UserProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.profiles[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	return p, nil
}

type fakeReviews struct {
	reviewed    map[int64][]models.Book
	idsErr      error
	booksErr    error
	booksCalls  int
	lastMaxRead int
}

func (f *fakeReviews) FindReviewedBookIDs(_ context.Context, userID int64) (models.BookIDSet, error) {
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	ids := models.NewBookIDSet()
	for _, b := range f.reviewed[userID] {
		ids.Add(b.ID)
	}
	return ids, nil
}

func (f *fakeReviews) FindReviewedBooks(_ context.Context, userID int64, maxCount int) ([]models.Book, error) {
	f.booksCalls++
	f.lastMaxRead = maxCount
	if f.booksErr != nil {
		return nil, f.booksErr
	}
	books := f.reviewed[userID]
	if len(books) > maxCount {
		books = books[:maxCount]
	}
	return books, nil
}

type fakeCatalog struct {
	topRated      []models.Book
	byGenre       map[models.Genre][]models.Book
	topErr        error
	genreErr      error
	topRatedCalls []int
	genreCalls    []models.Genre
	lastMinRating float64
	lastMinRevs   int
}

func (f *fakeCatalog) FindTopRatedBooks(_ context.Context, minRating float64, minReviews, maxResults int) ([]models.Book, error) {
	f.topRatedCalls = append(f.topRatedCalls, maxResults)
	f.lastMinRating = minRating
	f.lastMinRevs = minReviews
	if f.topErr != nil {
		return nil, f.topErr
	}
	books := f.topRated
	if len(books) > maxResults {
		books = books[:maxResults]
	}
	return books, nil
}

func (f *fakeCatalog) FindBooksByGenre(_ context.Context, genre models.Genre, maxResults int) ([]models.Book, error) {
	f.genreCalls = append(f.genreCalls, genre)
	if f.genreErr != nil {
		return nil, f.genreErr
	}
	books := f.byGenre[genre]
	if len(books) > maxResults {
		books = books[:maxResults]
	}
	return books, nil
}

type fakeAI struct {
	available bool
	books     []models.Book
	err       error
	delay     time.Duration
	calls     int
	lastMax   int
	lastRead  []models.Book
}

func (f *fakeAI) IsAvailable() bool { return f.available }

func (f *fakeAI) GetRecommendations(ctx context.Context, _ *models.UserProfile, readBooks []models.Book, maxResults int) ([]models.Book, error) {
	f.calls++
	f.lastMax = maxResults
	f.lastRead = readBooks
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.books, nil
}

func book(id int64, rating float64, reviews int, genres ...models.Genre) models.Book {
	return models.Book{
		ID:            id,
		Title:         "Book",
		Author:        "Author",
		Genres:        models.NewGenreSet(genres...),
		AverageRating: rating,
		TotalReviews:  reviews,
	}
}

func newTestService(t *testing.T, users *fakeUsers, reviews *fakeReviews, catalog *fakeCatalog, ai AIProvider) *Service {
	cfg := &Config{AIContextSize: 50, AITimeout: 200 * time.Millisecond}
	return NewService(cfg, users, reviews, catalog, ai, logger.NewTestLogger(t))
}

func defaultUsers() *fakeUsers {
	return &fakeUsers{profiles: map[int64]*models.UserProfile{
		1: {ID: 1, PreferredGenres: models.NewGenreSet(models.GenreFiction)},
		2: {ID: 2},
	}}
}

func ids(recs []models.Recommendation) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Book.ID)
	}
	return out
}

func assertInvariants(t *testing.T, recs []models.Recommendation, limit int, reviewed models.BookIDSet) {
	t.Helper()
	assert.LessOrEqual(t, len(recs), max(limit, 0))
	seen := models.NewBookIDSet()
	for _, r := range recs {
		assert.False(t, reviewed.Contains(r.Book.ID), "reviewed book %d recommended", r.Book.ID)
		assert.False(t, seen.Contains(r.Book.ID), "book %d recommended twice", r.Book.ID)
		seen.Add(r.Book.ID)
		assert.GreaterOrEqual(t, r.Score, 0.0)
		assert.LessOrEqual(t, r.Score, 1.0)
	}
}

// ===== Orchestrator Tests =====

func TestRecommend_UnknownUser(t *testing.T) {
	catalog := &fakeCatalog{topRated: []models.Book{book(1, 5, 100)}}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

	recs, err := svc.Recommend(context.Background(), 999, DefaultRequest())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.Nil(t, recs)
	assert.Empty(t, catalog.topRatedCalls)
}

func TestRecommend_ExcludesReviewedBooks(t *testing.T) {
	a := book(1, 5.0, 120, models.GenreFiction)
	b := book(2, 4.8, 200, models.GenreMystery)
	reviews := &fakeReviews{reviewed: map[int64][]models.Book{1: {a}}}
	catalog := &fakeCatalog{topRated: []models.Book{a, b}}
	svc := newTestService(t, defaultUsers(), reviews, catalog, nil)

	req := Request{Limit: 5, MinRating: 3.5, MinReviewCount: 5, IncludeTopRated: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(recs))
	assert.Equal(t, models.StrategyTopRated, recs[0].Strategy)
	assert.Contains(t, recs[0].Reason, "excellent rating")
	require.NotNil(t, recs[0].UserID)
	assert.Equal(t, int64(1), *recs[0].UserID)
}

func TestRecommend_AllStrategiesDisabled(t *testing.T) {
	catalog := &fakeCatalog{
		topRated: []models.Book{book(1, 5, 100)},
		byGenre:  map[models.Genre][]models.Book{models.GenreFiction: {book(2, 4, 50)}},
	}
	ai := &fakeAI{available: true, books: []models.Book{book(3, 4, 10)}}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, ai)

	recs, err := svc.Recommend(context.Background(), 1, Request{Limit: 10, MinRating: 0})

	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, catalog.topRatedCalls)
	assert.Empty(t, catalog.genreCalls)
	assert.Zero(t, ai.calls)
}

func TestRecommend_NonPositiveLimit(t *testing.T) {
	for _, limit := range []int{0, -3} {
		catalog := &fakeCatalog{topRated: []models.Book{book(1, 5, 100)}}
		svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

		req := DefaultRequest()
		req.Limit = limit
		recs, err := svc.Recommend(context.Background(), 1, req)

		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
		assert.Empty(t, catalog.topRatedCalls)
	}
}

func TestRecommend_TopRatedFetchSizeAndCap(t *testing.T) {
	var top []models.Book
	for i := int64(1); i <= 30; i++ {
		top = append(top, book(i, 4.5, 50))
	}
	catalog := &fakeCatalog{topRated: top}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

	req := Request{Limit: 12, MinRating: 4.2, MinReviewCount: 7, IncludeTopRated: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	assert.Equal(t, []int{24}, catalog.topRatedCalls)
	assert.Equal(t, 4.2, catalog.lastMinRating)
	assert.Equal(t, 7, catalog.lastMinRevs)
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids(recs))
}

func TestRecommend_TopRatedThenGenreFillsBudget(t *testing.T) {
	top := []models.Book{book(1, 4.9, 300), book(2, 4.8, 150)}
	catalog := &fakeCatalog{
		topRated: top,
		byGenre: map[models.Genre][]models.Book{
			models.GenreFiction: {book(3, 3.5, 40, models.GenreFiction), book(4, 3.0, 2, models.GenreFiction), book(5, 2.0, 9, models.GenreFiction)},
		},
	}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

	req := Request{Limit: 4, MinRating: 3.5, MinReviewCount: 5, IncludeTopRated: true, IncludeGenreBased: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	// genre fetch is sized to the two remaining slots; book 4 fails the review floor.
	assert.Equal(t, []int64{1, 2, 3}, ids(recs))
	assert.Equal(t, models.StrategyTopRated, recs[0].Strategy)
	assert.Equal(t, models.StrategyTopRated, recs[1].Strategy)
	assert.Equal(t, models.StrategyGenreSimilarity, recs[2].Strategy)
	assert.Equal(t, "Based on your interest in fiction books", recs[2].Reason)
	assert.InDelta(t, 3.5/5.0+0.2, recs[2].Score, 1e-9)
	assertInvariants(t, recs, req.Limit, models.NewBookIDSet())
}

func TestRecommend_GenreScoreIsCapped(t *testing.T) {
	catalog := &fakeCatalog{
		byGenre: map[models.Genre][]models.Book{
			models.GenreFiction: {book(1, 4.1, 40, models.GenreFiction), book(2, 5.0, 90, models.GenreFiction)},
		},
	}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

	req := Request{Limit: 5, MinReviewCount: 5, IncludeGenreBased: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 1.0, recs[0].Score)
	assert.Equal(t, 1.0, recs[1].Score)
	assertInvariants(t, recs, req.Limit, models.NewBookIDSet())
}

func TestRecommend_GenreFallbackWhenNoPreferences(t *testing.T) {
	catalog := &fakeCatalog{
		byGenre: map[models.Genre][]models.Book{
			models.GenreFiction:  {book(1, 4, 10)},
			models.GenreMystery:  {book(2, 4, 10)},
			models.GenreRomance:  {book(3, 4, 10)},
			models.GenreHistory:  {book(4, 5, 99)},
			models.GenreBusiness: {book(5, 5, 99)},
		},
	}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

	req := Request{Limit: 10, MinReviewCount: 5, IncludeGenreBased: true}
	recs, err := svc.Recommend(context.Background(), 2, req)

	require.NoError(t, err)
	assert.Equal(t, []models.Genre{models.GenreFiction, models.GenreMystery, models.GenreRomance}, catalog.genreCalls)
	assert.ElementsMatch(t, []int64{1, 2, 3}, ids(recs))
	for _, r := range recs {
		assert.Equal(t, models.StrategyGenreSimilarity, r.Strategy)
		assert.InDelta(t, 4.0/5.0+0.1, r.Score, 1e-9)
	}
}

func TestRecommend_GenreUsesFavoritesAndStopsWhenFull(t *testing.T) {
	users := &fakeUsers{profiles: map[int64]*models.UserProfile{
		7: {
			ID:              7,
			PreferredGenres: models.NewGenreSet(models.GenreScienceFiction),
			FavoriteGenres:  models.NewGenreSet(models.GenreFiction, models.GenreScienceFiction),
		},
	}}
	catalog := &fakeCatalog{
		byGenre: map[models.Genre][]models.Book{
			models.GenreFiction:        {book(10, 4, 20), book(11, 4, 20)},
			models.GenreScienceFiction: {book(10, 4, 20), book(12, 5, 20)},
		},
	}
	svc := newTestService(t, users, &fakeReviews{}, catalog, nil)

	req := Request{Limit: 2, IncludeGenreBased: true}
	recs, err := svc.Recommend(context.Background(), 7, req)

	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, ids(recs))
	assert.Equal(t, []models.Genre{models.GenreFiction}, catalog.genreCalls)
	assert.InDelta(t, 0.9, recs[0].Score, 1e-9)
}

func TestRecommend_GenreDeduplicatesAcrossGenres(t *testing.T) {
	users := &fakeUsers{profiles: map[int64]*models.UserProfile{
		3: {ID: 3, PreferredGenres: models.NewGenreSet(models.GenreFiction, models.GenreFantasy)},
	}}
	shared := book(20, 4.5, 30, models.GenreFiction, models.GenreFantasy)
	catalog := &fakeCatalog{
		byGenre: map[models.Genre][]models.Book{
			models.GenreFiction: {shared},
			models.GenreFantasy: {shared, book(21, 4.0, 30)},
		},
	}
	svc := newTestService(t, users, &fakeReviews{}, catalog, nil)

	recs, err := svc.Recommend(context.Background(), 3, Request{Limit: 5, IncludeGenreBased: true})

	require.NoError(t, err)
	assert.Equal(t, []int64{20, 21}, ids(recs))
	assert.Equal(t, "Based on your interest in fiction books", recs[0].Reason)
	assert.Equal(t, "Based on your interest in fantasy books", recs[1].Reason)
}

func TestRecommend_AIUnavailableIsSkipped(t *testing.T) {
	catalog := &fakeCatalog{topRated: []models.Book{book(1, 4.5, 100)}}
	ai := &fakeAI{available: false, books: []models.Book{book(9, 4, 4)}}
	reviews := &fakeReviews{}
	svc := newTestService(t, defaultUsers(), reviews, catalog, ai)

	req := Request{Limit: 5, MinRating: 3.5, IncludeTopRated: true, IncludeAIPowered: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(recs))
	assert.Zero(t, ai.calls)
	assert.Zero(t, reviews.booksCalls)
}

func TestRecommend_AIPowered(t *testing.T) {
	read := []models.Book{book(1, 4, 10)}
	reviews := &fakeReviews{reviewed: map[int64][]models.Book{1: read}}
	ai := &fakeAI{available: true, books: []models.Book{book(1, 4, 10), book(2, 3, 1), book(3, 4, 2), book(4, 2, 0)}}
	svc := newTestService(t, defaultUsers(), reviews, &fakeCatalog{}, ai)

	req := Request{Limit: 2, IncludeAIPowered: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(recs))
	assert.Equal(t, 4, ai.lastMax)
	assert.Equal(t, 50, reviews.lastMaxRead)
	assert.Equal(t, read, ai.lastRead)
	for _, r := range recs {
		assert.Equal(t, models.StrategyAIPowered, r.Strategy)
		assert.Equal(t, 0.9, r.Score)
		assert.Contains(t, r.Reason, "AI-powered")
	}
}

func TestRecommend_AIErrors(t *testing.T) {
	tests := []struct {
		name    string
		ai      *fakeAI
		wantErr bool
	}{
		{
			name: "provider reports unavailable mid-call",
			ai:   &fakeAI{available: true, err: ErrProviderUnavailable},
		},
		{
			name: "provider exceeds timeout",
			ai:   &fakeAI{available: true, delay: time.Second, books: []models.Book{book(5, 4, 4)}},
		},
		{
			name:    "provider fails",
			ai:      &fakeAI{available: true, err: errors.New("status 500")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := &fakeCatalog{topRated: []models.Book{book(1, 4.5, 100)}}
			svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, tt.ai)

			req := Request{Limit: 5, IncludeTopRated: true, IncludeAIPowered: true}
			recs, err := svc.Recommend(context.Background(), 1, req)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrLookupFailed))
				assert.Nil(t, recs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int64{1}, ids(recs))
		})
	}
}

func TestRecommend_CollaboratorFailuresAreFatal(t *testing.T) {
	boom := errors.New("connection refused")
	tests := []struct {
		name    string
		users   *fakeUsers
		reviews *fakeReviews
		catalog *fakeCatalog
		req     Request
	}{
		{
			name:    "user store",
			users:   &fakeUsers{err: boom},
			reviews: &fakeReviews{},
			catalog: &fakeCatalog{},
			req:     DefaultRequest(),
		},
		{
			name:    "review ids",
			users:   defaultUsers(),
			reviews: &fakeReviews{idsErr: boom},
			catalog: &fakeCatalog{},
			req:     DefaultRequest(),
		},
		{
			name:    "top rated",
			users:   defaultUsers(),
			reviews: &fakeReviews{},
			catalog: &fakeCatalog{topErr: boom},
			req:     DefaultRequest(),
		},
		{
			name:    "genre after top rated succeeded",
			users:   defaultUsers(),
			reviews: &fakeReviews{},
			catalog: &fakeCatalog{topRated: []models.Book{book(1, 5, 100)}, genreErr: boom},
			req:     DefaultRequest(),
		},
		{
			name:    "reviewed books for ai context",
			users:   defaultUsers(),
			reviews: &fakeReviews{booksErr: boom},
			catalog: &fakeCatalog{},
			req:     Request{Limit: 3, IncludeAIPowered: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ai := &fakeAI{available: true}
			svc := newTestService(t, tt.users, tt.reviews, tt.catalog, ai)

			recs, err := svc.Recommend(context.Background(), 1, tt.req)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLookupFailed))
			assert.Nil(t, recs)
		})
	}
}

func TestRecommend_Invariants(t *testing.T) {
	reviewedBooks := []models.Book{book(1, 5, 100), book(4, 4, 40), book(9, 4, 40)}
	reviews := &fakeReviews{reviewed: map[int64][]models.Book{1: reviewedBooks}}
	catalog := &fakeCatalog{
		topRated: []models.Book{book(1, 5, 100), book(2, 4.9, 80), book(3, 4.7, 60), book(4, 4.6, 90)},
		byGenre: map[models.Genre][]models.Book{
			models.GenreFiction: {book(2, 4.9, 80), book(3, 4.7, 60), book(5, 4.0, 10), book(6, 3.0, 6), book(9, 3.9, 50)},
		},
	}
	ai := &fakeAI{available: true, books: []models.Book{book(1, 5, 1), book(5, 4, 1), book(7, 4, 1), book(8, 4, 1), book(9, 4, 1)}}
	reviewed := models.NewBookIDSet(1, 4, 9)

	for limit := -1; limit <= 12; limit++ {
		for mask := 0; mask < 8; mask++ {
			req := Request{
				Limit:             limit,
				MinRating:         3.5,
				MinReviewCount:    5,
				IncludeTopRated:   mask&1 != 0,
				IncludeGenreBased: mask&2 != 0,
				IncludeAIPowered:  mask&4 != 0,
			}
			svc := newTestService(t, defaultUsers(), reviews, catalog, ai)

			recs, err := svc.Recommend(context.Background(), 1, req)

			require.NoError(t, err)
			assertInvariants(t, recs, limit, reviewed)
			if mask == 0 {
				assert.Empty(t, recs)
			}
		}
	}
}

func TestRecommend_StrategyPriorityOrder(t *testing.T) {
	catalog := &fakeCatalog{
		topRated: []models.Book{book(1, 5, 100)},
		byGenre:  map[models.Genre][]models.Book{models.GenreFiction: {book(2, 4, 50)}},
	}
	ai := &fakeAI{available: true, books: []models.Book{book(3, 4, 10)}}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, ai)

	req := Request{Limit: 10, IncludeTopRated: true, IncludeGenreBased: true, IncludeAIPowered: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, models.StrategyTopRated, recs[0].Strategy)
	assert.Equal(t, models.StrategyGenreSimilarity, recs[1].Strategy)
	assert.Equal(t, models.StrategyAIPowered, recs[2].Strategy)
	assert.Equal(t, 16, ai.lastMax)
}

func TestRecommendTopRated_Anonymous(t *testing.T) {
	catalog := &fakeCatalog{topRated: []models.Book{book(1, 5, 100), book(2, 4.5, 20)}}
	svc := newTestService(t, defaultUsers(), &fakeReviews{idsErr: errors.New("must not be called")}, catalog, nil)

	recs, err := svc.RecommendTopRated(context.Background(), Request{Limit: 10, MinRating: 4.0, MinReviewCount: 10, IncludeGenreBased: true})

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids(recs))
	for _, r := range recs {
		assert.Nil(t, r.UserID)
		assert.Equal(t, models.StrategyTopRated, r.Strategy)
	}
	assert.Empty(t, catalog.genreCalls)
	assert.Equal(t, 4.0, catalog.lastMinRating)
	assert.Equal(t, 10, catalog.lastMinRevs)
}

func TestStep_DoesNotMutateInputState(t *testing.T) {
	catalog := &fakeCatalog{topRated: []models.Book{book(1, 5, 100), book(2, 4, 100)}}
	svc := newTestService(t, defaultUsers(), &fakeReviews{}, catalog, nil)

	before := newFoldState(models.NewBookIDSet(2))
	uid := int64(1)
	after, err := svc.step(context.Background(), NewTopRatedStrategy(catalog), &uid, nil, Request{Limit: 3, IncludeTopRated: true}, before)

	require.NoError(t, err)
	assert.Empty(t, before.collected)
	assert.Empty(t, before.emitted)
	assert.Len(t, after.collected, 1)
	assert.True(t, after.emitted.Contains(1))
	assert.Equal(t, 2, after.remaining(3))
}

type favoritesStrategy struct {
	books []models.Book
	seen  []int
}

func (f *favoritesStrategy) Kind() models.Strategy { return models.StrategyFavoritesSimilarity }

func (f *favoritesStrategy) Enabled(Request) bool { return true }

func (f *favoritesStrategy) Quota(remaining int) int { return remaining }

func (f *favoritesStrategy) FetchCandidates(_ context.Context, in StepInput) ([]Candidate, error) {
	f.seen = append(f.seen, in.Remaining)
	out := make([]Candidate, 0, len(f.books))
	for _, b := range f.books {
		out = append(out, Candidate{Book: b})
	}
	return out, nil
}

func (f *favoritesStrategy) Score(Candidate, *models.UserProfile) (float64, string) {
	return 0.8, "Similar to books you marked as favorites"
}

func TestRecommend_CustomStrategyChain(t *testing.T) {
	reviewed := book(9, 4, 10)
	catalog := &fakeCatalog{topRated: []models.Book{book(1, 5, 100), book(2, 4.5, 80)}}
	reviews := &fakeReviews{reviewed: map[int64][]models.Book{1: {reviewed}}}
	favorites := &favoritesStrategy{books: []models.Book{book(2, 4.5, 80), reviewed, book(3, 4, 30), book(4, 4, 30)}}
	svc := newTestService(t, defaultUsers(), reviews, catalog, nil).
		WithStrategies(NewTopRatedStrategy(catalog), favorites)

	req := Request{Limit: 3, IncludeTopRated: true}
	recs, err := svc.Recommend(context.Background(), 1, req)

	require.NoError(t, err)
	// book 2 was already emitted by top-rated and book 9 is reviewed.
	assert.Equal(t, []int64{1, 2, 3}, ids(recs))
	assert.Equal(t, models.StrategyTopRated, recs[1].Strategy)
	assert.Equal(t, models.StrategyFavoritesSimilarity, recs[2].Strategy)
	assert.Equal(t, "Similar to books you marked as favorites", recs[2].Reason)
	assert.Equal(t, 0.8, recs[2].Score)
	assert.Equal(t, []int{1}, favorites.seen)
	assert.Empty(t, catalog.genreCalls)
	assertInvariants(t, recs, req.Limit, models.NewBookIDSet(9))
}
