// internal/recommendation/request.go
package recommendation

const (
	DefaultLimit          = 10
	DefaultMinRating      = 3.5
	DefaultMinReviewCount = 5

	// Public top-rated listing defaults.
	DefaultPublicMinRating      = 4.0
	DefaultPublicMinReviewCount = 10

	MaxLimit = 100
)

// Request governs which strategies run and their floor thresholds. Values
// are copied into the orchestrator and never mutated.
type Request struct {
	Limit             int     `json:"limit" validate:"gte=0,lte=100"`
	MinRating         float64 `json:"minRating" validate:"gte=0,lte=5"`
	MinReviewCount    int     `json:"minReviews" validate:"gte=0"`
	IncludeTopRated   bool    `json:"includeTopRated"`
	IncludeGenreBased bool    `json:"includeGenreBased"`
	IncludeAIPowered  bool    `json:"includeAIPowered"`
}

func DefaultRequest() Request {
	return Request{
		Limit:             DefaultLimit,
		MinRating:         DefaultMinRating,
		MinReviewCount:    DefaultMinReviewCount,
		IncludeTopRated:   true,
		IncludeGenreBased: true,
		IncludeAIPowered:  false,
	}
}

// TopRatedRequest is the request used by the anonymous listing.
func TopRatedRequest(limit int, minRating float64, minReviews int) Request {
	return Request{
		Limit:           limit,
		MinRating:       minRating,
		MinReviewCount:  minReviews,
		IncludeTopRated: true,
	}
}

func (r Request) anyStrategy() bool {
	return r.IncludeTopRated || r.IncludeGenreBased || r.IncludeAIPowered
}

// RequestOverrides carries caller-supplied values. Nil fields keep the
// defaults they are applied to.
type RequestOverrides struct {
	Limit             *int     `json:"limit,omitempty"`
	MinRating         *float64 `json:"minRating,omitempty"`
	MinReviewCount    *int     `json:"minReviews,omitempty"`
	IncludeTopRated   *bool    `json:"includeTopRated,omitempty"`
	IncludeGenreBased *bool    `json:"includeGenreBased,omitempty"`
	IncludeAIPowered  *bool    `json:"includeAIPowered,omitempty"`
}

func (o RequestOverrides) Apply(base Request) Request {
	if o.Limit != nil {
		base.Limit = *o.Limit
	}
	if o.MinRating != nil {
		base.MinRating = *o.MinRating
	}
	if o.MinReviewCount != nil {
		base.MinReviewCount = *o.MinReviewCount
	}
	if o.IncludeTopRated != nil {
		base.IncludeTopRated = *o.IncludeTopRated
	}
	if o.IncludeGenreBased != nil {
		base.IncludeGenreBased = *o.IncludeGenreBased
	}
	if o.IncludeAIPowered != nil {
		base.IncludeAIPowered = *o.IncludeAIPowered
	}
	return base
}
