// internal/search/catalog.go
package search

import (
	"context"

	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"
)

type genreFinder interface {
	FindBooksByGenre(ctx context.Context, genre models.Genre, maxResults int) ([]models.Book, error)
}

// Catalog serves genre lookups from the search index and everything else
// from the primary store.
type Catalog struct {
	primary recommendation.Catalog
	genres  genreFinder
}

func NewCatalog(primary recommendation.Catalog, genres genreFinder) *Catalog {
	return &Catalog{primary: primary, genres: genres}
}

func (c *Catalog) FindTopRatedBooks(ctx context.Context, minRating float64, minReviews, maxResults int) ([]models.Book, error) {
	return c.primary.FindTopRatedBooks(ctx, minRating, minReviews, maxResults)
}

func (c *Catalog) FindBooksByGenre(ctx context.Context, genre models.Genre, maxResults int) ([]models.Book, error) {
	return c.genres.FindBooksByGenre(ctx, genre, maxResults)
}
