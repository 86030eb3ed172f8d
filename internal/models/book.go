package models

import "time"

// Book is the catalog projection the recommender reads. It is never written
// back.
type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	Genres        GenreSet  `json:"genres"`
	PublishedYear int       `json:"publishedYear,omitempty"`
	AverageRating float64   `json:"averageRating"`
	TotalReviews  int       `json:"totalReviews"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BookIDSet is a set of book identifiers.
type BookIDSet map[int64]struct{}

func NewBookIDSet(ids ...int64) BookIDSet {
	s := make(BookIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s BookIDSet) Add(id int64) {
	s[id] = struct{}{}
}

func (s BookIDSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy.
func (s BookIDSet) Clone() BookIDSet {
	out := make(BookIDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}
