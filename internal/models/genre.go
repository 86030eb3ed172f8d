package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Genre string

const (
	GenreFiction        Genre = "FICTION"
	GenreNonFiction     Genre = "NON_FICTION"
	GenreMystery        Genre = "MYSTERY"
	GenreRomance        Genre = "ROMANCE"
	GenreScienceFiction Genre = "SCIENCE_FICTION"
	GenreFantasy        Genre = "FANTASY"
	GenreBiography      Genre = "BIOGRAPHY"
	GenreHistory        Genre = "HISTORY"
	GenreSelfHelp       Genre = "SELF_HELP"
	GenreBusiness       Genre = "BUSINESS"
	GenreTechnology     Genre = "TECHNOLOGY"
	GenreHealth         Genre = "HEALTH"
	GenreCooking        Genre = "COOKING"
	GenreTravel         Genre = "TRAVEL"
	GenreChildren       Genre = "CHILDREN"
)

// AllGenres lists every genre in declaration order. Anything that walks a
// set of genres iterates in this order so results are reproducible.
var AllGenres = []Genre{
	GenreFiction,
	GenreNonFiction,
	GenreMystery,
	GenreRomance,
	GenreScienceFiction,
	GenreFantasy,
	GenreBiography,
	GenreHistory,
	GenreSelfHelp,
	GenreBusiness,
	GenreTechnology,
	GenreHealth,
	GenreCooking,
	GenreTravel,
	GenreChildren,
}

var genreOrdinal = func() map[Genre]int {
	m := make(map[Genre]int, len(AllGenres))
	for i, g := range AllGenres {
		m[g] = i
	}
	return m
}()

// ParseGenre accepts the canonical upper-case name in any case.
func ParseGenre(s string) (Genre, error) {
	g := Genre(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := genreOrdinal[g]; !ok {
		return "", fmt.Errorf("unknown genre %q", s)
	}
	return g, nil
}

func (g Genre) Valid() bool {
	_, ok := genreOrdinal[g]
	return ok
}

// DisplayName renders SCIENCE_FICTION as "science fiction".
func (g Genre) DisplayName() string {
	return strings.ReplaceAll(strings.ToLower(string(g)), "_", " ")
}

// GenreSet is an unordered set of genres.
type GenreSet map[Genre]struct{}

func NewGenreSet(genres ...Genre) GenreSet {
	s := make(GenreSet, len(genres))
	for _, g := range genres {
		s[g] = struct{}{}
	}
	return s
}

func (s GenreSet) Add(genres ...Genre) {
	for _, g := range genres {
		s[g] = struct{}{}
	}
}

func (s GenreSet) Contains(g Genre) bool {
	_, ok := s[g]
	return ok
}

// Union returns a new set holding the members of both sets.
func (s GenreSet) Union(other GenreSet) GenreSet {
	out := make(GenreSet, len(s)+len(other))
	for g := range s {
		out[g] = struct{}{}
	}
	for g := range other {
		out[g] = struct{}{}
	}
	return out
}

// Ordered returns the members in declaration order. Unknown values sort last
// by name.
func (s GenreSet) Ordered() []Genre {
	out := make([]Genre, 0, len(s))
	for _, g := range AllGenres {
		if s.Contains(g) {
			out = append(out, g)
		}
	}
	var unknown []Genre
	for g := range s {
		if !g.Valid() {
			unknown = append(unknown, g)
		}
	}
	if len(unknown) > 0 {
		sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
		out = append(out, unknown...)
	}
	return out
}

func (s GenreSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ordered())
}

func (s *GenreSet) UnmarshalJSON(data []byte) error {
	var list []Genre
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NewGenreSet(list...)
	return nil
}
