// package services defines the catalog client contracts and their HTTP implementation
package services

import (
	"context"

	"github.com/desertthunder/skyplay/internal/models"
)

// Catalog is the read side of the catalog API consumed by views and background tasks.
type Catalog interface {
	// FetchAllTracks retrieves every catalog track with absolute audio locators.
	FetchAllTracks(ctx context.Context) ([]models.Track, error)

	// FetchSelections lists curated selections.
	FetchSelections(ctx context.Context) ([]models.Selection, error)

	// FetchSelectionTracks resolves a selection's items against the catalog.
	FetchSelectionTracks(ctx context.Context, id int) (*models.SelectionTracks, error)

	// FetchFavorites retrieves the signed-in user's liked tracks.
	FetchFavorites(ctx context.Context) ([]models.Track, error)
}

// Favorites mutates the signed-in user's likes.
type Favorites interface {
	SetFavorite(ctx context.Context, trackID int) error
	UnsetFavorite(ctx context.Context, trackID int) error
}

// SessionSource reports who is signed in.
type SessionSource interface {
	Session(ctx context.Context) (*models.Session, error)
}

var (
	_ Catalog       = (*CatalogService)(nil)
	_ Favorites     = (*CatalogService)(nil)
	_ SessionSource = (*CatalogService)(nil)
	_ Credentials   = (*MemoryCredentials)(nil)
)
