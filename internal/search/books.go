// internal/search/books.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"bookreview-recommender/internal/common/logger"
	"bookreview-recommender/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrSearchQueryFailed = errors.New("SEARCH_QUERY_FAILED")
	ErrIndexNotFound     = errors.New("INDEX_NOT_FOUND")
)

// bookDocument is the shape of a book in the search index.
type bookDocument struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	CoverImageURL string    `json:"cover_image_url"`
	Genres        []string  `json:"genres"`
	PublishedYear int       `json:"published_year"`
	AverageRating float64   `json:"average_rating"`
	TotalReviews  int       `json:"total_reviews"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (d bookDocument) toBook() models.Book {
	b := models.Book{
		ID:            d.ID,
		Title:         d.Title,
		Author:        d.Author,
		Description:   d.Description,
		CoverImageURL: d.CoverImageURL,
		Genres:        models.NewGenreSet(),
		PublishedYear: d.PublishedYear,
		AverageRating: d.AverageRating,
		TotalReviews:  d.TotalReviews,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	for _, g := range d.Genres {
		b.Genres.Add(models.Genre(g))
	}
	return b
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source bookDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// BookIndex answers genre lookups from Elasticsearch.
type BookIndex struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewBookIndex(client *elasticsearch.Client, index string, log logger.Logger) *BookIndex {
	if index == "" {
		index = "books"
	}
	return &BookIndex{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "book-index", "index": index}),
	}
}

func buildGenreQuery(genre models.Genre) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"genres": string(genre)}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"average_rating": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"total_reviews": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	}
}

// FindBooksByGenre returns up to maxResults books tagged with genre, best
// rated first.
func (b *BookIndex) FindBooksByGenre(ctx context.Context, genre models.Genre, maxResults int) ([]models.Book, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	body, err := json.Marshal(buildGenreQuery(genre))
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrSearchQueryFailed, err)
	}

	size := maxResults
	req := esapi.SearchRequest{
		Index: []string{b.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, b.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchQueryFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, b.index)
	}
	if res.IsError() {
		raw, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("%w: %s: %s", ErrSearchQueryFailed, res.Status(), string(raw))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchQueryFailed, err)
	}

	books := make([]models.Book, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		books = append(books, hit.Source.toBook())
	}

	b.logger.Debug("genre search complete", map[string]interface{}{
		"genre": string(genre),
		"hits":  len(books),
	})
	return books, nil
}
