package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bookreview-recommender/internal/common/auth"
	"bookreview-recommender/internal/common/database"
	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const testSecret = "test-secret"

type fakeService struct {
	userID    int64
	req       recommendation.Request
	calls     int
	recs      []models.Recommendation
	err       error
	anonymous bool
}

func (f *fakeService) Recommend(_ context.Context, userID int64, req recommendation.Request) ([]models.Recommendation, error) {
	f.calls++
	f.userID = userID
	f.req = req
	return f.recs, f.err
}

func (f *fakeService) RecommendTopRated(_ context.Context, req recommendation.Request) ([]models.Recommendation, error) {
	f.calls++
	f.anonymous = true
	f.req = req
	return f.recs, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testDefaults() Defaults {
	return Defaults{
		Personal: recommendation.DefaultRequest(),
		TopRated: recommendation.TopRatedRequest(10, 4.0, 10),
	}
}

func setupServer(t *testing.T, svc *fakeService, checks map[string]database.Pinger) (*httptest.Server, *auth.JWTManager) {
	t.Helper()
	jwtManager := auth.NewJWTManager(testSecret, "bookreview", time.Hour)
	h := NewHandler(svc, jwtManager, testDefaults(), checks, nil, logger.NewTestLogger(t))
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv, jwtManager
}

func token(t *testing.T, m *auth.JWTManager, userID int64, role string) string {
	t.Helper()
	tok, err := m.GenerateToken(userID, fmt.Sprintf("user%d@example.com", userID), role)
	require.NoError(t, err)
	return tok
}

func doRequest(t *testing.T, method, url, bearer, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Code
}

func sampleRecs(userID *int64) []models.Recommendation {
	return []models.Recommendation{{
		UserID:   userID,
		Book:     models.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genres: models.NewGenreSet(models.GenreScienceFiction)},
		Strategy: models.StrategyTopRated,
		Reason:   "Highly rated book with excellent reviews",
		Score:    0.93,
	}}
}

// ==========================
// for-me Tests
// ==========================

func TestForMe_Get(t *testing.T) {
	uid := int64(42)
	svc := &fakeService{recs: sampleRecs(&uid)}
	srv, jwtManager := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-me?limit=5&includeAIPowered=true", token(t, jwtManager, 42, "USER"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var recs []models.Recommendation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "Dune", recs[0].Book.Title)
	require.NotNil(t, recs[0].UserID)
	assert.Equal(t, int64(42), *recs[0].UserID)

	assert.Equal(t, int64(42), svc.userID)
	assert.Equal(t, 5, svc.req.Limit)
	assert.True(t, svc.req.IncludeAIPowered)
	assert.True(t, svc.req.IncludeTopRated)
	assert.Equal(t, recommendation.DefaultMinRating, svc.req.MinRating)
}

func TestForMe_PostBody(t *testing.T) {
	svc := &fakeService{}
	srv, jwtManager := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/recommendations/for-me",
		token(t, jwtManager, 7, "USER"), `{"limit": 3, "includeTopRated": false, "minReviews": 0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var recs []models.Recommendation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&recs))
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	assert.Equal(t, 3, svc.req.Limit)
	assert.False(t, svc.req.IncludeTopRated)
	assert.True(t, svc.req.IncludeGenreBased)
	assert.Equal(t, 0, svc.req.MinReviewCount)
}

func TestForMe_PostEmptyBodyUsesDefaults(t *testing.T) {
	svc := &fakeService{}
	srv, jwtManager := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/recommendations/for-me", token(t, jwtManager, 7, "USER"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, recommendation.DefaultRequest(), svc.req)
}

func TestForMe_Unauthorized(t *testing.T) {
	svc := &fakeService{}
	srv, _ := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-me", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp))

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-me", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	other := auth.NewJWTManager("other-secret", "bookreview", time.Hour)
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-me", token(t, other, 1, "USER"), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, 0, svc.calls)
}

func TestForMe_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		query  string
		body   string
	}{
		{"limit too large", http.MethodGet, "?limit=101", ""},
		{"negative limit", http.MethodGet, "?limit=-3", ""},
		{"negative limit in body", http.MethodPost, "", `{"limit":-1}`},
		{"rating above five", http.MethodGet, "?minRating=5.5", ""},
		{"negative reviews", http.MethodGet, "?minReviews=-1", ""},
		{"non numeric limit", http.MethodGet, "?limit=ten", ""},
		{"non boolean flag", http.MethodGet, "?includeTopRated=maybe", ""},
		{"malformed body", http.MethodPost, "", `{"limit":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			srv, jwtManager := setupServer(t, svc, nil)

			resp := doRequest(t, tt.method, srv.URL+"/api/v1/recommendations/for-me"+tt.query, token(t, jwtManager, 1, "USER"), tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_REQUEST", decodeError(t, resp))
			assert.Equal(t, 0, svc.calls)
		})
	}
}

func TestForMe_ZeroLimitIsAccepted(t *testing.T) {
	svc := &fakeService{recs: []models.Recommendation{}}
	srv, jwtManager := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-me?limit=0", token(t, jwtManager, 1, "USER"), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, svc.req.Limit)
}

func TestForMe_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown user", fmt.Errorf("%w: 1", recommendation.ErrUserNotFound), http.StatusNotFound, "USER_NOT_FOUND"},
		{"lookup failure", fmt.Errorf("%w: db down", recommendation.ErrLookupFailed), http.StatusInternalServerError, "RECOMMENDATION_LOOKUP_FAILED"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, jwtManager := setupServer(t, &fakeService{err: tt.err}, nil)

			resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-me", token(t, jwtManager, 1, "USER"), "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCode, decodeError(t, resp))
		})
	}
}

// ==========================
// for-user Tests
// ==========================

func TestForUser_Access(t *testing.T) {
	tests := []struct {
		name       string
		caller     int64
		role       string
		path       string
		wantStatus int
		wantCalls  int
	}{
		{"owner", 5, "USER", "5", http.StatusOK, 1},
		{"admin", 1, auth.RoleAdmin, "5", http.StatusOK, 1},
		{"other user", 6, "USER", "5", http.StatusForbidden, 0},
		{"bad id", 5, "USER", "abc", http.StatusBadRequest, 0},
		{"zero id", 5, auth.RoleAdmin, "0", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			srv, jwtManager := setupServer(t, svc, nil)

			resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-user/"+tt.path, token(t, jwtManager, tt.caller, tt.role), "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, svc.calls)
			if tt.wantCalls > 0 {
				assert.Equal(t, int64(5), svc.userID)
			}
		})
	}
}

func TestForUser_NotFound(t *testing.T) {
	srv, jwtManager := setupServer(t, &fakeService{err: recommendation.ErrUserNotFound}, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/for-user/999", token(t, jwtManager, 1, auth.RoleAdmin), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "USER_NOT_FOUND", decodeError(t, resp))
}

// ==========================
// top-rated Tests
// ==========================

func TestTopRated_Public(t *testing.T) {
	svc := &fakeService{recs: sampleRecs(nil)}
	srv, _ := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/top-rated", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Len(t, raw, 1)
	_, hasUser := raw[0]["userId"]
	assert.False(t, hasUser)

	assert.True(t, svc.anonymous)
	assert.Equal(t, recommendation.TopRatedRequest(10, 4.0, 10), svc.req)
}

func TestTopRated_Overrides(t *testing.T) {
	svc := &fakeService{}
	srv, _ := setupServer(t, svc, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/recommendations/top-rated?limit=3&minRating=4.5&minReviews=50", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, svc.req.Limit)
	assert.Equal(t, 4.5, svc.req.MinRating)
	assert.Equal(t, 50, svc.req.MinReviewCount)
	assert.False(t, svc.req.IncludeGenreBased)
}

// ==========================
// Health Tests
// ==========================

func TestHealthAndReady(t *testing.T) {
	srv, _ := setupServer(t, &fakeService{}, map[string]database.Pinger{"postgres": fakePinger{}})

	resp := doRequest(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/ready", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	down, _ := setupServer(t, &fakeService{}, map[string]database.Pinger{
		"postgres": fakePinger{},
		"redis":    fakePinger{err: errors.New("refused")},
	})
	resp = doRequest(t, http.MethodGet, down.URL+"/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Status string                 `json:"status"`
		Checks []database.CheckResult `json:"checks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "DOWN", body.Status)
	assert.Len(t, body.Checks, 2)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := setupServer(t, &fakeService{}, nil)

	resp := doRequest(t, http.MethodGet, srv.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
