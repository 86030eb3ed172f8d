// internal/repository/scan.go
package repository

import (
	"database/sql"
	"time"

	"bookreview-recommender/internal/models"

	"github.com/lib/pq"
)

// bookColumns is shared by every query returning books. Genres are folded
// into a text array so one row carries a whole book.
const bookColumns = `
	b.id, b.title, b.author,
	COALESCE(b.description, ''), COALESCE(b.cover_image_url, ''),
	COALESCE(b.published_year, 0), COALESCE(b.average_rating, 0), COALESCE(b.total_reviews, 0),
	b.created_at, COALESCE(b.updated_at, b.created_at),
	COALESCE(array_agg(g.genre) FILTER (WHERE g.genre IS NOT NULL), '{}') AS genres`

const bookFrom = `
	FROM books b
	LEFT JOIN book_genres g ON g.book_id = b.id`

// bookColumnNames lists the scanned columns in order; tests build rows from it.
var bookColumnNames = []string{
	"id", "title", "author", "description", "cover_image_url",
	"published_year", "average_rating", "total_reviews",
	"created_at", "updated_at", "genres",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBook(row rowScanner) (models.Book, error) {
	var (
		b         models.Book
		genres    []string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&b.ID, &b.Title, &b.Author,
		&b.Description, &b.CoverImageURL,
		&b.PublishedYear, &b.AverageRating, &b.TotalReviews,
		&createdAt, &updatedAt,
		pq.Array(&genres),
	); err != nil {
		return models.Book{}, err
	}
	b.CreatedAt = createdAt
	b.UpdatedAt = updatedAt
	b.Genres = models.NewGenreSet()
	for _, g := range genres {
		if genre, err := models.ParseGenre(g); err == nil {
			b.Genres.Add(genre)
		}
	}
	return b, nil
}

func scanBooks(rows *sql.Rows) ([]models.Book, error) {
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}
