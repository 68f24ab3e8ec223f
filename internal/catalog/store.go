package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/errors"
)

// Store is the read-only catalog. It is built once and never mutated, so
// every method is safe for concurrent use without locking.
type Store struct {
	movies      []Movie
	byID        map[string]int
	fingerprint string
}

// NewStore copies movies into a new Store, keeping their order.
func NewStore(movies []Movie) *Store {
	s := &Store{
		movies: make([]Movie, len(movies)),
		byID:   make(map[string]int, len(movies)),
	}
	copy(s.movies, movies)
	h := sha256.New()
	for i, m := range s.movies {
		if _, seen := s.byID[m.ID]; !seen {
			s.byID[m.ID] = i
		}
		fmt.Fprintf(h, "%q|%q|%q|%q|%q|%q\n", m.ID, m.Title, m.Year, m.Category, m.Rating, m.Overview)
	}
	s.fingerprint = hex.EncodeToString(h.Sum(nil)[:8])
	return s
}

// Len returns the number of movies in the catalog.
func (s *Store) Len() int {
	return len(s.movies)
}

// All returns a copy of the whole catalog in load order.
func (s *Store) All() []Movie {
	out := make([]Movie, len(s.movies))
	copy(out, s.movies)
	return out
}

// Fingerprint is a short digest of the catalog contents.
func (s *Store) Fingerprint() string {
	return s.fingerprint
}

// Filter returns the movies for which keep reports true, in catalog order.
// The result is never nil.
func (s *Store) Filter(keep func(Movie) bool) []Movie {
	out := make([]Movie, 0)
	for _, m := range s.movies {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// FilterByCategory returns every movie whose category, lower-cased, contains
// category lower-cased. An empty category matches the whole catalog.
func (s *Store) FilterByCategory(category string) []Movie {
	needle := strings.ToLower(category)
	return s.Filter(func(m Movie) bool {
		return strings.Contains(strings.ToLower(m.Category), needle)
	})
}

// Find returns the first movie whose id equals id exactly.
func (s *Store) Find(id string) (Movie, error) {
	i, ok := s.byID[id]
	if !ok {
		return Movie{}, fmt.Errorf("movie %q: %w", id, apperrors.ErrMovieNotFound)
	}
	return s.movies[i], nil
}
