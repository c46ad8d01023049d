package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
)

var _ services.Credentials = (*SessionRepository)(nil)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTrack(id int, name string) models.Track {
	return models.Track{
		ID:              id,
		Name:            name,
		Author:          "Artist",
		Album:           "Album",
		Genres:          []string{"Rock"},
		ReleaseDate:     "2020-01-01",
		DurationSeconds: 205.5,
		AudioURL:        "https://cdn.example.com/" + name + ".mp3",
		LikedBy:         models.UserIDs{"7"},
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	first, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	second, err := NextSequence(db, "tracks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}
	if second != first+1 {
		t.Errorf("expected %d, got %d", first+1, second)
	}

	t.Run("Concurrent", func(t *testing.T) {
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[int]bool{}
		)
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				seq, err := NextSequence(db, "tracks")
				if err != nil {
					t.Errorf("failed to get sequence: %v", err)
					return
				}
				mu.Lock()
				seen[seq] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		if len(seen) != 10 {
			t.Errorf("expected 10 distinct sequences, got %d", len(seen))
		}
	})

	t.Run("Unknown Table", func(t *testing.T) {
		if _, err := NextSequence(db, "tracks; DROP TABLE tracks"); err == nil {
			t.Error("expected error for a table without a sequence")
		}
	})
}

func TestTrackRepository(t *testing.T) {
	t.Run("Create and Get", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(0, sampleTrack(8, "song"))

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if track.ID() == "" || track.Sequence() == 0 {
			t.Fatalf("expected id and sequence to be set, got %q/%d", track.ID(), track.Sequence())
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		gt := got.Track()
		if gt.ID != 8 || gt.Name != "song" || gt.DurationSeconds != 205.5 {
			t.Errorf("unexpected track: %+v", gt)
		}
		if len(gt.Genres) != 1 || gt.Genres[0] != "Rock" {
			t.Errorf("expected genres [Rock], got %v", gt.Genres)
		}
		if !gt.IsLikedBy("7") {
			t.Errorf("expected liked_by to round trip, got %v", gt.LikedBy)
		}
	})

	t.Run("Create Invalid", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if err := repo.Create(models.NewCachedTrack(0, models.Track{ID: 0, Name: "x"})); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Duplicate Catalog ID", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if err := repo.Create(models.NewCachedTrack(0, sampleTrack(1, "a"))); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := repo.Create(models.NewCachedTrack(0, sampleTrack(1, "b"))); err == nil {
			t.Error("expected unique constraint error")
		}
	})

	t.Run("GetByCatalogID", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		if err := repo.Create(models.NewCachedTrack(0, sampleTrack(42, "answer"))); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.GetByCatalogID(42)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.CatalogID() != 42 {
			t.Errorf("expected catalog id 42, got %d", got.CatalogID())
		}

		if _, err := repo.GetByCatalogID(43); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(0, sampleTrack(3, "old"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		changed := track.Track()
		changed.Name = "new"
		changed.LikedBy = nil
		track.SetTrack(changed)
		if err := repo.Update(track); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Track().Name != "new" {
			t.Errorf("expected name new, got %s", got.Track().Name)
		}
		if got.Track().LikeCount() != 0 {
			t.Errorf("expected no likes, got %v", got.Track().LikedBy)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(0, sampleTrack(5, "gone"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}
		if _, err := repo.Get(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected deleted track to be hidden, got %v", err)
		}
		if err := repo.Delete(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected second delete to fail, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		for i, name := range []string{"one", "two", "three"} {
			tr := sampleTrack(i+1, name)
			if name == "two" {
				tr.Author = "Other"
			}
			if err := repo.Create(models.NewCachedTrack(0, tr)); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(all) != 3 || all[0].Track().Name != "one" || all[2].Track().Name != "three" {
			t.Errorf("expected insertion order, got %d rows", len(all))
		}

		byAuthor, err := repo.List(map[string]any{"author": "Other"})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(byAuthor) != 1 || byAuthor[0].Track().Name != "two" {
			t.Errorf("expected only track two, got %d rows", len(byAuthor))
		}

		limited, err := repo.List(map[string]any{"limit": 2})
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(limited) != 2 {
			t.Errorf("expected 2 rows, got %d", len(limited))
		}
	})
}

// failingStore is a models.TrackStore whose every call fails with err.
type failingStore struct{ err error }

func (f failingStore) Create(*models.CachedTrack) error                { return f.err }
func (f failingStore) Get(string) (*models.CachedTrack, error)         { return nil, f.err }
func (f failingStore) GetByCatalogID(int) (*models.CachedTrack, error) { return nil, f.err }
func (f failingStore) Update(*models.CachedTrack) error                { return f.err }
func (f failingStore) Delete(string) error                             { return f.err }
func (f failingStore) Restore(int) error                               { return f.err }

func (f failingStore) List(map[string]any) ([]*models.CachedTrack, error) { return nil, f.err }

func TestTrackCache(t *testing.T) {
	t.Run("Upsert and Prune", func(t *testing.T) {
		cache := NewTrackCache(NewTrackRepository(setupTestDB(t)))

		n, err := cache.CacheTracks([]models.Track{sampleTrack(1, "a"), sampleTrack(2, "b"), sampleTrack(1, "a")})
		if err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 writes, got %d", n)
		}

		renamed := sampleTrack(2, "b2")
		if _, err := cache.CacheTracks([]models.Track{renamed, sampleTrack(3, "c")}); err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}

		got, err := cache.CachedTracks()
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 cached tracks, got %d", len(got))
		}
		if got[0].ID != 2 || got[0].Name != "b2" || got[1].ID != 3 {
			t.Errorf("unexpected cache contents: %+v", got)
		}
	})

	t.Run("Restores Pruned Track", func(t *testing.T) {
		cache := NewTrackCache(NewTrackRepository(setupTestDB(t)))

		if _, err := cache.CacheTracks([]models.Track{sampleTrack(1, "a")}); err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}
		if _, err := cache.CacheTracks([]models.Track{sampleTrack(2, "b")}); err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}
		if _, err := cache.CacheTracks([]models.Track{sampleTrack(1, "a again"), sampleTrack(2, "b")}); err != nil {
			t.Fatalf("failed to cache tracks: %v", err)
		}

		got, err := cache.CachedTracks()
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 cached tracks, got %d", len(got))
		}
		if got[0].Name != "a again" {
			t.Errorf("expected restored track to be refreshed, got %s", got[0].Name)
		}
	})

	t.Run("Store Errors", func(t *testing.T) {
		boom := errors.New("disk I/O error")
		cache := NewTrackCache(failingStore{err: boom})

		err := cache.CacheTrack(sampleTrack(1, "a"))
		if !errors.Is(err, boom) {
			t.Errorf("expected lookup error to surface, got %v", err)
		}
		if _, err := cache.CachedTracks(); !errors.Is(err, boom) {
			t.Errorf("expected list error to surface, got %v", err)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		cache := NewTrackCache(NewTrackRepository(setupTestDB(t)))
		got, err := cache.CachedTracks()
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty cache, got %d", len(got))
		}
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		session, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if session != nil {
			t.Errorf("expected nil session, got %+v", session)
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		expiry := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		in := &models.Session{
			Token:    &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", Expiry: expiry},
			UserID:   "7",
			Username: "listener",
			Email:    "listener@example.com",
		}
		if err := repo.Save(ctx, in); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		out, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if !out.Authenticated() {
			t.Fatal("expected an authenticated session")
		}
		if out.Token.RefreshToken != "refresh" || !out.Token.Expiry.Equal(expiry) {
			t.Errorf("unexpected token: %+v", out.Token)
		}
		if out.Username != "listener" || out.Email != "listener@example.com" {
			t.Errorf("unexpected user fields: %+v", out)
		}
	})

	t.Run("Save Replaces", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		first := &models.Session{Token: &oauth2.Token{AccessToken: "a1", RefreshToken: "r1"}, UserID: "1"}
		second := &models.Session{Token: &oauth2.Token{AccessToken: "a2"}, UserID: "2"}
		if err := repo.Save(ctx, first); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		if err := repo.Save(ctx, second); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}

		out, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("failed to load session: %v", err)
		}
		if out.Token.AccessToken != "a2" || out.Token.RefreshToken != "" || out.UserID != "2" {
			t.Errorf("expected second session only, got %+v / %+v", out, out.Token)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		in := &models.Session{Token: &oauth2.Token{AccessToken: "a"}, UserID: "1"}
		if err := repo.Save(ctx, in); err != nil {
			t.Fatalf("failed to save session: %v", err)
		}
		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("failed to clear session: %v", err)
		}
		out, err := repo.Load(ctx)
		if err != nil || out != nil {
			t.Errorf("expected nil session after clear, got %+v (%v)", out, err)
		}
	})
}
