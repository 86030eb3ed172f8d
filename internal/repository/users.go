// internal/repository/users.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookreview-recommender/internal/models"
	"bookreview-recommender/internal/recommendation"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindUserProfile loads the user with declared genres and the genres of
// their favorite books. Unknown ids yield recommendation.ErrUserNotFound.
func (r *UserRepository) FindUserProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	p := &models.UserProfile{
		ID:              userID,
		PreferredGenres: models.NewGenreSet(),
		FavoriteGenres:  models.NewGenreSet(),
	}

	err := r.db.QueryRowContext(ctx,
		`SELECT email, COALESCE(bio, '') FROM users WHERE id = $1`, userID,
	).Scan(&p.Email, &p.Bio)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", recommendation.ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("query user %d: %w", userID, err)
	}

	if err := r.loadGenres(ctx, p.PreferredGenres,
		`SELECT preferred_genres FROM user_preferred_genres WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("query preferred genres: %w", err)
	}

	if err := r.loadGenres(ctx, p.FavoriteGenres, `
		SELECT DISTINCT g.genre
		FROM user_favorite_books f
		JOIN book_genres g ON g.book_id = f.book_id
		WHERE f.user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("query favorite genres: %w", err)
	}

	return p, nil
}

// loadGenres skips names outside the Genre enum.
func (r *UserRepository) loadGenres(ctx context.Context, into models.GenreSet, query string, userID int64) error {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return err
		}
		if genre, err := models.ParseGenre(g); err == nil {
			into.Add(genre)
		}
	}
	return rows.Err()
}
