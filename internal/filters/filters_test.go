package filters

import (
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

func ids(tracks []models.Track) []int {
	return models.TrackIDs(tracks)
}

func sameBacking(a, b []models.Track) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

func TestUniqueFacets(t *testing.T) {
	tracks := []models.Track{
		{ID: 1, Author: "B", Genres: []string{"rock", "pop"}},
		{ID: 2, Author: "A", Genres: []string{"rock"}},
		{ID: 3, Author: "B", Genres: []string{""}},
		{ID: 4, Author: "-", Genres: nil},
		{ID: 5, Author: "", Genres: []string{"jazz"}},
	}

	t.Run("UniqueAuthors", func(t *testing.T) {
		got := UniqueAuthors(tracks)
		want := []string{"A", "B"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("UniqueGenres", func(t *testing.T) {
		got := UniqueGenres(tracks)
		want := []string{"jazz", "pop", "rock"}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Empty Input", func(t *testing.T) {
		if got := UniqueAuthors(nil); len(got) != 0 {
			t.Errorf("expected no authors, got %v", got)
		}
		if got := UniqueGenres(nil); len(got) != 0 {
			t.Errorf("expected no genres, got %v", got)
		}
	})
}

func TestFilterBySearch(t *testing.T) {
	tracks := []models.Track{
		{ID: 1, Name: "Abc"},
		{ID: 2, Name: "abc"},
		{ID: 3, Name: "Xabc"},
	}

	tc := []struct {
		name  string
		query string
		want  []int
	}{
		{name: "prefix ignores case", query: "ab", want: []int{1, 2}},
		{name: "upper query", query: "AB", want: []int{1, 2}},
		{name: "surrounding whitespace", query: "  x ", want: []int{3}},
		{name: "no match", query: "bc", want: []int{}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterBySearch(tracks, tt.query))
			if !slices.Equal(got, tt.want) {
				t.Errorf("FilterBySearch(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}

	t.Run("Blank Query Is Identity", func(t *testing.T) {
		for _, q := range []string{"", "   "} {
			if got := FilterBySearch(tracks, q); !sameBacking(got, tracks) {
				t.Errorf("expected identity for %q", q)
			}
		}
	})
}

func TestFilterByAuthorAndGenre(t *testing.T) {
	tracks := []models.Track{
		{ID: 1, Author: "A", Genres: []string{"rock"}},
		{ID: 2, Author: "a", Genres: []string{"pop", "rock"}},
		{ID: 3, Author: "B", Genres: []string{"pop"}},
	}

	t.Run("Author Exact Match", func(t *testing.T) {
		if got := ids(FilterByAuthor(tracks, "A")); !slices.Equal(got, []int{1}) {
			t.Errorf("expected [1], got %v", got)
		}
	})

	t.Run("No Author Is Identity", func(t *testing.T) {
		if got := FilterByAuthor(tracks, ""); !sameBacking(got, tracks) {
			t.Error("expected identity for empty author")
		}
	})

	t.Run("Genre Membership", func(t *testing.T) {
		if got := ids(FilterByGenre(tracks, "rock")); !slices.Equal(got, []int{1, 2}) {
			t.Errorf("expected [1 2], got %v", got)
		}
	})

	t.Run("No Genre Is Identity", func(t *testing.T) {
		if got := FilterByGenre(tracks, ""); !sameBacking(got, tracks) {
			t.Error("expected identity for empty genre")
		}
	})
}

func TestSortTracks(t *testing.T) {
	tracks := []models.Track{
		{ID: 1, ReleaseDate: "2021-01-01"},
		{ID: 2, ReleaseDate: ""},
		{ID: 3, ReleaseDate: "2022-01-01"},
		{ID: 4, ReleaseDate: "2021-01-01"},
	}

	t.Run("Default Preserves Order", func(t *testing.T) {
		if got := SortTracks(tracks, SortDefault); !sameBacking(got, tracks) {
			t.Error("expected identity for default order")
		}
	})

	t.Run("Newest Is Stable", func(t *testing.T) {
		got := ids(SortTracks(tracks, SortNewest))
		want := []int{3, 1, 4, 2}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Oldest Is Stable", func(t *testing.T) {
		got := ids(SortTracks(tracks, SortOldest))
		want := []int{2, 1, 4, 3}
		if !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("Input Untouched", func(t *testing.T) {
		SortTracks(tracks, SortNewest)
		if got := ids(tracks); !slices.Equal(got, []int{1, 2, 3, 4}) {
			t.Errorf("input reordered: %v", got)
		}
	})
}

func TestApply(t *testing.T) {
	tracks := []models.Track{
		{ID: 1, Name: "Rock Song", Author: "A", Genres: []string{"rock"}, ReleaseDate: "2020-01-01"},
		{ID: 2, Name: "Pop Song", Author: "A", Genres: []string{"pop"}, ReleaseDate: "2022-01-01"},
		{ID: 3, Name: "Rock Two", Author: "B", Genres: []string{"rock"}, ReleaseDate: "2021-01-01"},
	}

	t.Run("Composes All Filters", func(t *testing.T) {
		state := State{Search: "Rock", Author: "A", Genre: "rock", Sort: SortNewest}
		if got := ids(Apply(tracks, state)); !slices.Equal(got, []int{1}) {
			t.Errorf("expected [1], got %v", got)
		}
	})

	t.Run("Sort Runs Last", func(t *testing.T) {
		state := State{Search: "rock", Sort: SortNewest}
		if got := ids(Apply(tracks, state)); !slices.Equal(got, []int{3, 1}) {
			t.Errorf("expected [3 1], got %v", got)
		}
	})

	t.Run("Zero State Is Identity", func(t *testing.T) {
		if got := Apply(tracks, State{}); !sameBacking(got, tracks) {
			t.Error("expected identity for zero state")
		}
		if (State{}).Active() {
			t.Error("zero state should not be active")
		}
	})
}

func TestParseSortOrder(t *testing.T) {
	tc := []struct {
		in   string
		want SortOrder
	}{
		{"", SortDefault},
		{"default", SortDefault},
		{"Newest", SortNewest},
		{" oldest ", SortOldest},
	}
	for _, tt := range tc {
		got, err := ParseSortOrder(tt.in)
		if err != nil {
			t.Fatalf("ParseSortOrder(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSortOrder("random"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}
