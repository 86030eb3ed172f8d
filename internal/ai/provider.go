// internal/ai/provider.go
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bookreview-recommender/internal/common/config"
	commonhttp "bookreview-recommender/internal/common/http"
	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/common/validation"
	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"
)

var (
	ErrProviderFailed  = errors.New("AI_PROVIDER_FAILED")
	ErrProviderTimeout = errors.New("AI_PROVIDER_TIMEOUT")
	ErrInvalidResponse = errors.New("AI_INVALID_RESPONSE")
)

const recommendationsPath = "/api/ai/recommendations"

// responseSchema is the contract the GenAI service must honor.
var responseSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"books"},
	"properties": map[string]interface{}{
		"books": map[string]interface{}{
			"type": "array",
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"title", "author"},
				"properties": map[string]interface{}{
					"title":  map[string]interface{}{"type": "string", "minLength": 1},
					"author": map[string]interface{}{"type": "string"},
					"reason": map[string]interface{}{"type": "string"},
				},
			},
		},
	},
}

// BookResolver maps a suggested title and author to a catalog book. A nil
// book with nil error means no match.
type BookResolver interface {
	FindBookByTitleAndAuthor(ctx context.Context, title, author string) (*models.Book, error)
}

type Config struct {
	Enabled    bool
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	Breaker    commonhttp.BreakerSettings
}

// ConfigFromGenAI converts the millisecond-based file settings.
func ConfigFromGenAI(c config.GenAIConfig) *Config {
	return &Config{
		Enabled:    c.Enabled,
		BaseURL:    strings.TrimRight(c.BaseURL, "/"),
		APIKey:     c.APIKey,
		Timeout:    time.Duration(c.Timeout) * time.Millisecond,
		MaxRetries: c.MaxRetries,
		Breaker: commonhttp.BreakerSettings{
			Name:             "genai",
			FailureThreshold: uint32(c.Breaker.FailureThreshold),
			OpenTimeout:      time.Duration(c.Breaker.OpenTimeout) * time.Millisecond,
			HalfOpenRequests: uint32(c.Breaker.HalfOpenRequests),
			Interval:         time.Duration(c.Breaker.Interval) * time.Millisecond,
		},
	}
}

type suggestionRequest struct {
	UserID     int64  `json:"userId"`
	Prompt     string `json:"prompt"`
	MaxResults int    `json:"maxResults"`
}

type suggestionResponse struct {
	Books []struct {
		Title  string `json:"title"`
		Author string `json:"author"`
		Reason string `json:"reason,omitempty"`
	} `json:"books"`
}

// Provider calls the external GenAI recommendation service.
type Provider struct {
	config *Config
	client *commonhttp.Client
	books  BookResolver
	schema *validation.Schema
	logger logger.Logger
}

func NewProvider(cfg *Config, books BookResolver, log logger.Logger) (*Provider, error) {
	log = log.WithFields(map[string]interface{}{"component": "genai"})
	schema, err := validation.CompileSchema(responseSchema)
	if err != nil {
		return nil, err
	}
	return &Provider{
		config: cfg,
		client: commonhttp.NewClientWithBreaker(cfg.Timeout, cfg.Breaker, log),
		books:  books,
		schema: schema,
		logger: log,
	}, nil
}

// IsAvailable is a local check: enabled, keyed and the breaker not open.
func (p *Provider) IsAvailable() bool {
	return p.config.Enabled && p.config.APIKey != "" && p.config.BaseURL != "" && p.client.Available()
}

func (p *Provider) GetRecommendations(ctx context.Context, profile *models.UserProfile, readBooks []models.Book, maxResults int) ([]models.Book, error) {
	if !p.IsAvailable() {
		return nil, recommendation.ErrProviderUnavailable
	}
	if maxResults <= 0 {
		return nil, nil
	}

	req := suggestionRequest{Prompt: BuildPrompt(profile, readBooks), MaxResults: maxResults}
	if profile != nil {
		req.UserID = profile.ID
	}

	body, err := p.call(ctx, req)
	if err != nil {
		return nil, err
	}

	suggestions, err := p.decode(body)
	if err != nil {
		return nil, err
	}
	return p.resolve(ctx, suggestions, maxResults)
}

func (p *Provider) call(ctx context.Context, payload suggestionRequest) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrProviderFailed, err)
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, ctx.Err())
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+recommendationsPath, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %v", ErrProviderFailed, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.config.APIKey)

		resp, err := p.client.Do(httpReq)
		if err != nil {
			if errors.Is(err, commonhttp.ErrCircuitOpen) {
				return nil, fmt.Errorf("%w: %v", recommendation.ErrProviderUnavailable, err)
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, ctx.Err())
			}
			lastErr = err
			p.logger.Warn("genai call failed", map[string]interface{}{
				"attempt": attempt + 1,
				"error":   err.Error(),
			})
			continue
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		switch {
		case readErr != nil:
			lastErr = readErr
		case resp.StatusCode == http.StatusOK:
			return raw, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, strings.TrimSpace(string(raw)))
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrProviderFailed, lastErr)
}

func (p *Provider) decode(body []byte) (*suggestionResponse, error) {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	result, err := p.schema.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponse, result.Summary())
	}

	var out suggestionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &out, nil
}

func (p *Provider) resolve(ctx context.Context, suggestions *suggestionResponse, maxResults int) ([]models.Book, error) {
	seen := models.NewBookIDSet()
	books := make([]models.Book, 0, len(suggestions.Books))
	unresolved := 0

	for _, s := range suggestions.Books {
		if len(books) >= maxResults {
			break
		}
		book, err := p.books.FindBookByTitleAndAuthor(ctx, s.Title, s.Author)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", s.Title, err)
		}
		if book == nil {
			unresolved++
			continue
		}
		if seen.Contains(book.ID) {
			continue
		}
		seen.Add(book.ID)
		books = append(books, *book)
	}

	p.logger.Debug("genai suggestions resolved", map[string]interface{}{
		"suggested":  len(suggestions.Books),
		"resolved":   len(books),
		"unresolved": unresolved,
	})
	return books, nil
}
