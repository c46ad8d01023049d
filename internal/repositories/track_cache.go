package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/shared"
)

// TrackCache implements tasks.TrackCacher over a [models.TrackStore].
//
// A cache write is a snapshot: tracks missing from the latest catalog are soft-deleted.
type TrackCache struct {
	repo models.TrackStore
}

// NewTrackCache creates a new TrackCache with the given store
func NewTrackCache(repo models.TrackStore) *TrackCache {
	return &TrackCache{repo: repo}
}

// CacheTracks upserts every track and prunes rows that are no longer in the catalog.
// Returns the number of inserted or updated rows.
func (c *TrackCache) CacheTracks(tracks []models.Track) (int, error) {
	seen := make(map[int]bool, len(tracks))
	written := 0

	for _, t := range tracks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true

		if err := c.CacheTrack(t); err != nil {
			return written, err
		}
		written++
	}

	existing, err := c.repo.List(nil)
	if err != nil {
		return written, err
	}
	for _, row := range existing {
		if seen[row.CatalogID()] {
			continue
		}
		if err := c.repo.Delete(row.ID()); err != nil {
			return written, fmt.Errorf("failed to prune track %d: %w", row.CatalogID(), err)
		}
	}

	return written, nil
}

// CacheTrack inserts t or refreshes the cached copy with the same catalog id.
func (c *TrackCache) CacheTrack(t models.Track) error {
	existing, err := c.repo.GetByCatalogID(t.ID)
	switch {
	case err == nil:
		existing.SetTrack(t)
		return c.repo.Update(existing)
	case !errors.Is(err, shared.ErrTrackNotFound):
		return fmt.Errorf("failed to look up track %d: %w", t.ID, err)
	}

	err = c.repo.Create(models.NewCachedTrack(0, t))
	if err == nil {
		return nil
	}
	if !strings.Contains(err.Error(), "UNIQUE constraint") {
		return fmt.Errorf("failed to cache track: %w", err)
	}

	// A soft-deleted row still holds the catalog id.
	if err := c.repo.Restore(t.ID); err != nil {
		return err
	}
	existing, err = c.repo.GetByCatalogID(t.ID)
	if err != nil {
		return fmt.Errorf("failed to reload track %d: %w", t.ID, err)
	}
	existing.SetTrack(t)
	return c.repo.Update(existing)
}

// CachedTracks returns the cached catalog in insertion order.
func (c *TrackCache) CachedTracks() ([]models.Track, error) {
	rows, err := c.repo.List(nil)
	if err != nil {
		return nil, err
	}
	tracks := make([]models.Track, 0, len(rows))
	for _, row := range rows {
		tracks = append(tracks, row.Track())
	}
	return tracks, nil
}
