// internal/repository/reviews.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bookreview-recommender/internal/models"
)

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindReviewedBookIDs returns the id of every book the user has reviewed.
func (r *ReviewRepository) FindReviewedBookIDs(ctx context.Context, userID int64) (models.BookIDSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT book_id FROM reviews WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query reviewed book ids: %w", err)
	}
	defer rows.Close()

	ids := models.NewBookIDSet()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reviewed book id: %w", err)
		}
		ids.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviewed book ids: %w", err)
	}
	return ids, nil
}

// FindReviewedBooks returns up to maxCount books the user reviewed, most
// recent review first.
func (r *ReviewRepository) FindReviewedBooks(ctx context.Context, userID int64, maxCount int) ([]models.Book, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	query := `SELECT` + bookColumns + bookFrom + `
	JOIN reviews rv ON rv.book_id = b.id AND rv.user_id = $1
	GROUP BY b.id
	ORDER BY MAX(rv.created_at) DESC, b.id
	LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, userID, maxCount)
	if err != nil {
		return nil, fmt.Errorf("query reviewed books: %w", err)
	}
	books, err := scanBooks(rows)
	if err != nil {
		return nil, fmt.Errorf("scan reviewed books: %w", err)
	}
	return books, nil
}
