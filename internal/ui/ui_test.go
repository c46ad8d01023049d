package ui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/skyplay/internal/filters"
	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/store"
)

func testTracks() []models.Track {
	return []models.Track{
		{ID: 1, Name: "Alpha", Author: "Ann", Genres: []string{"Rock"}, ReleaseDate: "2020-01-01", DurationSeconds: 100},
		{ID: 2, Name: "Beta", Author: "Bob", Genres: []string{"Jazz"}, ReleaseDate: "2021-01-01", DurationSeconds: 200},
		{ID: 3, Name: "Alpine", Author: "Ann", Genres: []string{"Jazz"}, ReleaseDate: "2019-01-01", DurationSeconds: 300},
	}
}

func loadedModel(t *testing.T) *Model {
	t.Helper()
	favorites := store.NewFavoritesStore()
	m := NewModel(context.Background(), Deps{Player: store.NewPlayerStore(), Favorites: favorites})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	m.Update(tracksFetchedMsg(testTracks(), nil))
	return m
}

func TestCycle(t *testing.T) {
	options := []string{"a", "b"}
	tests := []struct {
		current string
		want    string
	}{
		{"", "a"},
		{"a", "b"},
		{"b", ""},
		{"stale", "a"},
	}
	for _, tt := range tests {
		if got := cycle(options, tt.current); got != tt.want {
			t.Errorf("cycle(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
	if got := cycle(nil, "a"); got != "" {
		t.Errorf("cycle with no options = %q, want empty", got)
	}
}

func TestNextSort(t *testing.T) {
	order := filters.SortDefault
	want := []filters.SortOrder{filters.SortNewest, filters.SortOldest, filters.SortDefault}
	for _, w := range want {
		order = nextSort(order)
		if order != w {
			t.Fatalf("expected %q, got %q", w, order)
		}
	}
}

func TestModel(t *testing.T) {
	t.Run("TracksFetched", func(t *testing.T) {
		m := loadedModel(t)
		if len(m.visible) != 3 {
			t.Fatalf("expected 3 visible tracks, got %d", len(m.visible))
		}
		if len(m.authors) != 2 || len(m.genres) != 2 {
			t.Errorf("unexpected facets: %v %v", m.authors, m.genres)
		}
	})

	t.Run("FetchError", func(t *testing.T) {
		m := NewModel(context.Background(), Deps{})
		m.Update(tracksFetchedMsg(nil, context.DeadlineExceeded))
		if !strings.Contains(m.View(), "Error") {
			t.Error("expected error view")
		}
	})

	t.Run("AuthorFilter", func(t *testing.T) {
		m := loadedModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})
		if m.filter.Author != "Ann" {
			t.Fatalf("expected author Ann, got %q", m.filter.Author)
		}
		if len(m.visible) != 2 {
			t.Errorf("expected 2 tracks by Ann, got %d", len(m.visible))
		}

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
		if m.filter.Active() || len(m.visible) != 3 {
			t.Errorf("expected filters cleared, got %+v", m.filter)
		}
	})

	t.Run("Search", func(t *testing.T) {
		m := loadedModel(t)
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
		if m.view != SearchView {
			t.Fatalf("expected search view, got %v", m.view)
		}
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("alp")})
		if len(m.visible) != 2 {
			t.Errorf("expected 2 tracks matching alp, got %d", len(m.visible))
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != TrackListView || m.filter.Search != "" || len(m.visible) != 3 {
			t.Errorf("esc should clear the search, got %q with %d tracks", m.filter.Search, len(m.visible))
		}
	})

	t.Run("FavoritesSource", func(t *testing.T) {
		m := loadedModel(t)
		m.deps.Favorites.Dispatch(store.SetFavorites{IDs: []int{2}})
		m.Update(tickMsg())

		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
		if m.source != SourceFavorites {
			t.Fatalf("expected favorites source")
		}
		if len(m.visible) != 1 || m.visible[0].ID != 2 {
			t.Errorf("expected only track 2, got %v", models.TrackIDs(m.visible))
		}

		m.deps.Favorites.Dispatch(store.AddFavorite{ID: 3})
		m.Update(tickMsg())
		if len(m.visible) != 2 {
			t.Errorf("expected favorites view to follow the store, got %v", models.TrackIDs(m.visible))
		}
	})

	t.Run("SelectionFetched", func(t *testing.T) {
		m := loadedModel(t)
		m.Update(selectionFetchedMsg(&models.SelectionTracks{ID: 5, Name: "Mix", Tracks: testTracks()[1:]}, nil))
		if m.source != SourceSelection || len(m.visible) != 2 {
			t.Fatalf("expected selection with 2 tracks, got %v", models.TrackIDs(m.visible))
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.source != SourceAll || len(m.visible) != 3 {
			t.Errorf("esc should return to all tracks")
		}
	})

	t.Run("LikeErrorShown", func(t *testing.T) {
		m := loadedModel(t)
		m.deps.Player.Dispatch(store.SelectTrack{Track: testTracks()[0]})
		m.Update(likeErrorMsg("favorite failed"))
		if !strings.Contains(m.View(), "favorite failed") {
			t.Error("expected like error in the player bar")
		}
		m.Update(likeErrorMsg(""))
		if strings.Contains(m.View(), "favorite failed") {
			t.Error("like error should clear")
		}
	})
}

func TestRenderPlayerBar(t *testing.T) {
	t.Run("Idle", func(t *testing.T) {
		if got := renderPlayerBar(store.NewPlayerState(), false, ""); !strings.Contains(got, "Nothing playing") {
			t.Errorf("unexpected idle bar %q", got)
		}
	})

	t.Run("Playing", func(t *testing.T) {
		track := testTracks()[1]
		s := store.PlayerState{CurrentTrack: &track, IsPlaying: true, CurrentTime: 65, Duration: 200, Volume: 40, Shuffle: true}
		got := renderPlayerBar(s, true, "")
		for _, want := range []string{"▶", "Bob", "Beta", "♥", "1:05 / 3:20", "vol 40%", "[shuffle]"} {
			if !strings.Contains(got, want) {
				t.Errorf("player bar missing %q:\n%s", want, got)
			}
		}
	})
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(0, 0, 4); got != "────" {
		t.Errorf("unknown duration should be empty, got %q", got)
	}
	if got := progressBar(50, 100, 4); got != "━━──" {
		t.Errorf("half elapsed, got %q", got)
	}
	if got := progressBar(500, 100, 4); got != "━━━━" {
		t.Errorf("overrun should clamp, got %q", got)
	}
}
