package models

import (
	"fmt"
	"time"
)

// CachedTrack is a catalog [Track] persisted for offline listing.
type CachedTrack struct {
	id        string
	sequence  int
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedTrack wraps a catalog track for persistence.
func NewCachedTrack(sequence int, track Track) *CachedTrack {
	now := time.Now()
	return &CachedTrack{sequence: sequence, track: track, createdAt: now, updatedAt: now}
}

func (c *CachedTrack) ID() string { return c.id }
func (c *CachedTrack) Sequence() int { return c.sequence }
func (c *CachedTrack) Track() Track { return c.track }
func (c *CachedTrack) CatalogID() int { return c.track.ID }
func (c *CachedTrack) CreatedAt() time.Time { return c.createdAt }
func (c *CachedTrack) UpdatedAt() time.Time { return c.updatedAt }
func (c *CachedTrack) DeletedAt() *time.Time { return c.deletedAt }

func (c *CachedTrack) SetID(id string) { c.id = id }
func (c *CachedTrack) SetSequence(seq int) { c.sequence = seq }
func (c *CachedTrack) SetTrack(t Track) { c.track = t }
func (c *CachedTrack) SetCreatedAt(t time.Time) { c.createdAt = t }
func (c *CachedTrack) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *CachedTrack) SetDeletedAt(t *time.Time) { c.deletedAt = t }

// Validate checks that the wrapped track has a catalog id and a name.
func (c *CachedTrack) Validate() error {
	if c.track.ID <= 0 {
		return fmt.Errorf("cached track: catalog id must be positive, got %d", c.track.ID)
	}
	if c.track.Name == "" {
		return fmt.Errorf("cached track %d: name is required", c.track.ID)
	}
	return nil
}
