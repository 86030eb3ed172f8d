package models

// UserProfile is the read-only view of a user that recommendation strategies
// consume.
type UserProfile struct {
	ID              int64    `json:"id"`
	Email           string   `json:"email,omitempty"`
	Bio             string   `json:"bio,omitempty"`
	PreferredGenres GenreSet `json:"preferredGenres"`
	FavoriteGenres  GenreSet `json:"favoriteGenres"`
}

// CandidateGenres is the union of declared and favorite-derived genres.
func (p *UserProfile) CandidateGenres() GenreSet {
	return p.PreferredGenres.Union(p.FavoriteGenres)
}

// Prefers reports whether the user explicitly declared the genre.
func (p *UserProfile) Prefers(g Genre) bool {
	return p.PreferredGenres.Contains(g)
}
