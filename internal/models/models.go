package models

import (
	"time"
)

// Model is a row owned by a local cache table.
// Rows carry a generated ID separate from any catalog id.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	Validate() error // Validate rejects a row before it is written
}

// Repository is the CRUD surface shared by the cache tables.
// Delete is soft; List skips deleted rows.
type Repository[T Model] interface {
	Create(row T) error
	Get(id string) (T, error)
	Update(row T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}

// TrackStore is the offline catalog cache. Rows are also addressable by
// catalog id, and a soft-deleted row can be restored when the catalog lists
// the track again.
type TrackStore interface {
	Repository[*CachedTrack]
	GetByCatalogID(catalogID int) (*CachedTrack, error)
	Restore(catalogID int) error
}
