// internal/repository/books.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bookreview-recommender/internal/models"
)

// BookRepository reads the catalog tables.
type BookRepository struct {
	db *sql.DB
}

func NewBookRepository(db *sql.DB) *BookRepository {
	return &BookRepository{db: db}
}

// FindTopRatedBooks returns books at or above both floors ordered by rating
// then review count, best first.
func (r *BookRepository) FindTopRatedBooks(ctx context.Context, minRating float64, minReviews, maxResults int) ([]models.Book, error) {
	if maxResults <= 0 {
		return nil, nil
	}
	query := `SELECT` + bookColumns + bookFrom + `
	WHERE COALESCE(b.average_rating, 0) >= $1 AND COALESCE(b.total_reviews, 0) >= $2
	GROUP BY b.id
	ORDER BY COALESCE(b.average_rating, 0) DESC, COALESCE(b.total_reviews, 0) DESC, b.id
	LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, minRating, minReviews, maxResults)
	if err != nil {
		return nil, fmt.Errorf("query top rated books: %w", err)
	}
	books, err := scanBooks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan top rated books: %w", err)
	}
	return books, nil
}

// FindBooksByGenre returns books tagged with genre, best rated first.
func (r *BookRepository) FindBooksByGenre(ctx context.Context, genre models.Genre, maxResults int) ([]models.Book, error) {
	if maxResults <= 0 {
		return nil, nil
	}
	query := `SELECT` + bookColumns + bookFrom + `
	WHERE b.id IN (SELECT book_id FROM book_genres WHERE genre = $1)
	GROUP BY b.id
	ORDER BY COALESCE(b.average_rating, 0) DESC, COALESCE(b.total_reviews, 0) DESC, b.id
	LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, string(genre), maxResults)
	if err != nil {
		return nil, fmt.Errorf("query books by genre %s: %w", genre, err)
	}
	books, err := scanBooks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan books by genre %s: %w", genre, err)
	}
	return books, nil
}

// FindBookByTitleAndAuthor matches case-insensitively on exact title and a
// partial author. It returns (nil, nil) when nothing matches.
func (r *BookRepository) FindBookByTitleAndAuthor(ctx context.Context, title, author string) (*models.Book, error) {
	query := `SELECT` + bookColumns + bookFrom + `
	WHERE LOWER(b.title) = LOWER($1) AND LOWER(b.author) LIKE '%' || LOWER($2) || '%'
	GROUP BY b.id
	ORDER BY COALESCE(b.total_reviews, 0) DESC, b.id
	LIMIT 1`

	b, err := scanBook(r.db.QueryRowContext(ctx, query, strings.TrimSpace(title), strings.TrimSpace(author)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find book %q by %q: %w", title, author, err)
	}
	return &b, nil
}
