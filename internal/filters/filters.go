// Package filters derives author and genre facets from a track list and
// produces the filtered, sorted sequence a track list view renders.
//
// Every function is pure. Identity cases (no author, no genre, blank query,
// default order) return the input slice itself; all other cases return a new slice.
package filters

import (
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

// SortOrder selects how [SortTracks] orders tracks by release date.
type SortOrder string

const (
	SortDefault SortOrder = "default"
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
)

// ParseSortOrder accepts "default", "newest" or "oldest" (case-insensitive); "" means default.
func ParseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(s))); order {
	case "", SortDefault:
		return SortDefault, nil
	case SortNewest, SortOldest:
		return order, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", shared.ErrInvalidFlag, s)
	}
}

// State is the per-view filter record. An empty Author or Genre means no filter.
type State struct {
	Search string    `json:"search"`
	Author string    `json:"author,omitempty"`
	Genre  string    `json:"genre,omitempty"`
	Sort   SortOrder `json:"sort"`
}

// Active reports whether any filter or non-default order is set.
func (s State) Active() bool {
	return strings.TrimSpace(s.Search) != "" || s.Author != "" || s.Genre != "" ||
		(s.Sort != "" && s.Sort != SortDefault)
}

// UniqueAuthors returns the sorted set of authors, skipping empty and placeholder values.
func UniqueAuthors(tracks []models.Track) []string {
	authors := make([]string, 0, len(tracks))
	for _, t := range tracks {
		if t.Author == "" || t.Author == models.PlaceholderAuthor {
			continue
		}
		authors = append(authors, t.Author)
	}
	slices.Sort(authors)
	return slices.Compact(authors)
}

// UniqueGenres returns the sorted set of genres across all tracks, skipping empty values.
func UniqueGenres(tracks []models.Track) []string {
	var genres []string
	for _, t := range tracks {
		for _, g := range t.Genres {
			if g != "" {
				genres = append(genres, g)
			}
		}
	}
	slices.Sort(genres)
	return slices.Compact(genres)
}

// FilterByAuthor keeps tracks whose author equals author exactly.
func FilterByAuthor(tracks []models.Track, author string) []models.Track {
	if author == "" {
		return tracks
	}
	return keep(tracks, func(t models.Track) bool { return t.Author == author })
}

// FilterByGenre keeps tracks listing genre among their genres.
func FilterByGenre(tracks []models.Track, genre string) []models.Track {
	if genre == "" {
		return tracks
	}
	return keep(tracks, func(t models.Track) bool { return t.HasGenre(genre) })
}

// FilterBySearch keeps tracks whose name starts with query, ignoring case.
func FilterBySearch(tracks []models.Track, query string) []models.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return tracks
	}
	return keep(tracks, func(t models.Track) bool {
		return strings.HasPrefix(strings.ToLower(t.Name), q)
	})
}

// SortTracks orders tracks by release date with a stable sort.
// Dates compare as strings, so an empty date is the oldest.
func SortTracks(tracks []models.Track, order SortOrder) []models.Track {
	var cmp func(a, b models.Track) int
	switch order {
	case SortNewest:
		cmp = func(a, b models.Track) int { return strings.Compare(b.ReleaseDate, a.ReleaseDate) }
	case SortOldest:
		cmp = func(a, b models.Track) int { return strings.Compare(a.ReleaseDate, b.ReleaseDate) }
	default:
		return tracks
	}

	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, cmp)
	return sorted
}

// Apply runs search, author, genre and finally the sort.
func Apply(tracks []models.Track, state State) []models.Track {
	result := FilterBySearch(tracks, state.Search)
	result = FilterByAuthor(result, state.Author)
	result = FilterByGenre(result, state.Genre)
	return SortTracks(result, state.Sort)
}

func keep(tracks []models.Track, pred func(models.Track) bool) []models.Track {
	out := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if pred(t) {
			out = append(out, t)
		}
	}
	return out
}
