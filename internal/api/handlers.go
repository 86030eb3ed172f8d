// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	commonerrors "bookreview-recommender/internal/common/errors"
	"bookreview-recommender/internal/common/database"
	"bookreview-recommender/internal/common/metrics"
	"bookreview-recommender/internal/common/validation"
	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"

	"github.com/go-chi/chi/v5"
)

const (
	endpointForMe    = "for-me"
	endpointForUser  = "for-user"
	endpointTopRated = "top-rated"
)

func (h *Handler) forMe(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		h.respondError(w, r, endpointForMe, start, commonerrors.NewUnauthorizedError("missing claims"))
		return
	}

	req, err := h.personalRequest(r)
	if err != nil {
		h.respondError(w, r, endpointForMe, start, err)
		return
	}

	recs, err := h.service.Recommend(r.Context(), claims.UserID, req)
	if err != nil {
		h.respondError(w, r, endpointForMe, start, h.mapServiceError(err, claims.UserID))
		return
	}
	h.respond(w, r, endpointForMe, start, recs)
}

func (h *Handler) forUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		h.respondError(w, r, endpointForUser, start, commonerrors.NewUnauthorizedError("missing claims"))
		return
	}

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil || userID <= 0 {
		h.respondError(w, r, endpointForUser, start, commonerrors.NewInvalidRequestError("userId must be a positive integer"))
		return
	}
	if claims.UserID != userID && !claims.IsAdmin() {
		h.respondError(w, r, endpointForUser, start,
			commonerrors.NewAccessDeniedError(fmt.Sprintf("user %d may not read recommendations of user %d", claims.UserID, userID)))
		return
	}

	req, err := h.personalRequest(r)
	if err != nil {
		h.respondError(w, r, endpointForUser, start, err)
		return
	}

	recs, err := h.service.Recommend(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, r, endpointForUser, start, h.mapServiceError(err, userID))
		return
	}
	h.respond(w, r, endpointForUser, start, recs)
}

func (h *Handler) topRated(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	overrides, err := overridesFromQuery(r.URL.Query())
	if err != nil {
		h.respondError(w, r, endpointTopRated, start, err)
		return
	}
	req := overrides.Apply(h.defaults.TopRated)
	if err := validateRequest(req); err != nil {
		h.respondError(w, r, endpointTopRated, start, err)
		return
	}

	recs, err := h.service.RecommendTopRated(r.Context(), req)
	if err != nil {
		h.respondError(w, r, endpointTopRated, start, h.mapServiceError(err, 0))
		return
	}
	h.respond(w, r, endpointTopRated, start, recs)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	results, healthy := database.CheckAll(r.Context(), h.checks, 2*time.Second)
	status := http.StatusOK
	state := "UP"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "DOWN"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
	})
}

// personalRequest merges query parameters and, for POST, the JSON body over
// the configured defaults.
func (h *Handler) personalRequest(r *http.Request) (recommendation.Request, error) {
	overrides, err := overridesFromQuery(r.URL.Query())
	if err != nil {
		return recommendation.Request{}, err
	}
	req := overrides.Apply(h.defaults.Personal)

	if r.Method == http.MethodPost && r.Body != nil {
		var body recommendation.RequestOverrides
		err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body)
		switch {
		case errors.Is(err, io.EOF):
		case err != nil:
			return recommendation.Request{}, commonerrors.NewInvalidRequestError("invalid json body")
		default:
			req = body.Apply(req)
		}
	}

	if err := validateRequest(req); err != nil {
		return recommendation.Request{}, err
	}
	return req, nil
}

func validateRequest(req recommendation.Request) error {
	if err := validation.ValidateStruct(req); err != nil {
		stdErr := commonerrors.NewInvalidRequestError(err.Error())
		var reqErr *validation.RequestError
		if errors.As(err, &reqErr) {
			stdErr.WithMetadata("fields", reqErr.Fields)
		}
		return stdErr
	}
	return nil
}

func overridesFromQuery(q url.Values) (recommendation.RequestOverrides, error) {
	var o recommendation.RequestOverrides

	intParam := func(name string) (*int, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, commonerrors.NewInvalidRequestError(fmt.Sprintf("%s must be an integer", name))
		}
		return &v, nil
	}
	boolParam := func(name string) (*bool, error) {
		raw := q.Get(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, commonerrors.NewInvalidRequestError(fmt.Sprintf("%s must be a boolean", name))
		}
		return &v, nil
	}

	var err error
	if o.Limit, err = intParam("limit"); err != nil {
		return o, err
	}
	if o.MinReviewCount, err = intParam("minReviews"); err != nil {
		return o, err
	}
	if raw := q.Get("minRating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return o, commonerrors.NewInvalidRequestError("minRating must be a number")
		}
		o.MinRating = &v
	}
	if o.IncludeTopRated, err = boolParam("includeTopRated"); err != nil {
		return o, err
	}
	if o.IncludeGenreBased, err = boolParam("includeGenreBased"); err != nil {
		return o, err
	}
	if o.IncludeAIPowered, err = boolParam("includeAIPowered"); err != nil {
		return o, err
	}
	return o, nil
}

// mapServiceError translates recommendation sentinels into API errors.
func (h *Handler) mapServiceError(err error, userID int64) error {
	switch {
	case errors.Is(err, recommendation.ErrUserNotFound):
		return commonerrors.NewUserNotFoundError(userID)
	case errors.Is(err, recommendation.ErrInvalidRequest):
		return commonerrors.NewInvalidRequestError(err.Error())
	case errors.Is(err, recommendation.ErrLookupFailed):
		return commonerrors.NewCollaboratorError(err)
	}
	return commonerrors.NewInternalError(err)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time, recs []models.Recommendation) {
	if recs == nil {
		recs = []models.Recommendation{}
	}
	metrics.RecommendationRequests.WithLabelValues(endpoint, "ok").Inc()
	metrics.RecommendationDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	h.telemetry.RecordRequest(r.Context(), endpoint, "ok", len(recs))
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, endpoint string, start time.Time, err error) {
	stdErr := commonerrors.Normalize(err)
	metrics.RecommendationRequests.WithLabelValues(endpoint, string(stdErr.Code)).Inc()
	metrics.RecommendationDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	h.telemetry.RecordRequest(r.Context(), endpoint, string(stdErr.Code), 0)

	if commonerrors.HTTPStatus(stdErr.Code) >= http.StatusInternalServerError {
		h.logger.Error("recommendation request failed", map[string]interface{}{
			"endpoint":  endpoint,
			"code":      string(stdErr.Code),
			"details":   stdErr.Details,
			"requestId": requestIDFromContext(r.Context()),
		})
	}
	writeError(w, stdErr)
}

func writeError(w http.ResponseWriter, err error) {
	stdErr := commonerrors.Normalize(err)
	writeJSON(w, commonerrors.HTTPStatus(stdErr.Code), stdErr)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
