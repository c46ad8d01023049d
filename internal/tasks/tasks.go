package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/skyplay/internal/models"
	"github.com/desertthunder/skyplay/internal/services"
	"github.com/desertthunder/skyplay/internal/shared"
	"github.com/desertthunder/skyplay/internal/store"
)

// APIClient defines the interface for making raw API requests.
type APIClient interface {
	Get(ctx context.Context, path string) (*services.APIResponse, error)
}

// TrackCacher persists catalog snapshots for offline use.
type TrackCacher interface {
	// CacheTracks upserts tracks and prunes cached tracks missing from the snapshot.
	CacheTracks(tracks []models.Track) (int, error)
	// CachedTracks lists cached tracks in insertion order.
	CachedTracks() ([]models.Track, error)
}

// EndpointResult represents the result of fetching data from a single API endpoint.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// DumpResult contains raw catalog data fetched from the API.
type DumpResult struct {
	Tracks     any              `json:"tracks,omitempty"`
	Selections any              `json:"selections,omitempty"`
	Errors     []EndpointResult `json:"-"`
}

// RefreshResult summarizes a cache refresh.
type RefreshResult struct {
	Fetched int
	Cached  int
}

type endpointOperation struct {
	path    string
	target  *any
	phase   Phase
	message string
}

// CatalogEngine runs multi-step catalog operations.
type CatalogEngine struct {
	catalog services.Catalog
	session services.SessionSource
	api     APIClient
	cache   TrackCacher
	logger  *log.Logger
}

// NewCatalogEngine creates an engine. session and api may be nil when the
// operations needing them are not used.
func NewCatalogEngine(catalog services.Catalog, session services.SessionSource, api APIClient, logger *log.Logger) *CatalogEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CatalogEngine{
		catalog: catalog,
		session: session,
		api:     api,
		logger:  shared.WithLogger(logger, "component", "tasks"),
	}
}

// WithCache enables the track cache.
func (e *CatalogEngine) WithCache(c TrackCacher) *CatalogEngine {
	e.cache = c
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *CatalogEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Tracks lists the catalog. Offline listings read the cache; online listings
// refresh it when one is configured.
func (e *CatalogEngine) Tracks(ctx context.Context, offline bool) ([]models.Track, error) {
	if offline {
		if e.cache == nil {
			return nil, fmt.Errorf("%w: track cache not configured", shared.ErrServiceUnavailable)
		}
		return e.cache.CachedTracks()
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}

	tracks, err := e.catalog.FetchAllTracks(ctx)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		if _, err := e.cache.CacheTracks(tracks); err != nil {
			e.logger.Warn("failed to cache tracks", "error", err)
		}
	}
	return tracks, nil
}

// RefreshCache fetches every catalog track and replaces the cached snapshot.
func (e *CatalogEngine) RefreshCache(ctx context.Context, progress chan<- ProgressUpdate) (*RefreshResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: track cache not configured", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchTracksUpdate(1, 2))
	tracks, err := e.catalog.FetchAllTracks(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(progress, cacheTracksUpdate(2, 2, len(tracks)))
	cached, err := e.cache.CacheTracks(tracks)
	if err != nil {
		return nil, fmt.Errorf("failed to cache tracks: %w", err)
	}
	return &RefreshResult{Fetched: len(tracks), Cached: cached}, nil
}

// SyncFavorites replaces the favorites store with the signed-in user's liked tracks.
//
// Without a session the store is emptied and nil is returned. Any fetch
// failure also empties the store and is returned to the caller.
func (e *CatalogEngine) SyncFavorites(ctx context.Context, favorites *store.Store[store.FavoritesState]) error {
	if e.session == nil || e.catalog == nil {
		favorites.Dispatch(store.SetFavorites{})
		return nil
	}

	session, err := e.session.Session(ctx)
	if err != nil {
		favorites.Dispatch(store.SetFavorites{})
		return fmt.Errorf("failed to load session: %w", err)
	}
	if !session.Authenticated() {
		favorites.Dispatch(store.SetFavorites{})
		return nil
	}

	tracks, err := e.catalog.FetchFavorites(ctx)
	if err != nil {
		favorites.Dispatch(store.SetFavorites{})
		return err
	}

	favorites.Dispatch(store.SetFavorites{IDs: models.TrackIDs(tracks)})
	e.logger.Debug("favorites synced", "count", len(tracks))
	return nil
}

// Dump fetches raw catalog data from the API.
func (e *CatalogEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{
		Errors: []EndpointResult{},
	}

	endpoints := []endpointOperation{
		{path: "/catalog/track/all/", target: &result.Tracks, phase: FetchTracks, message: "Fetching tracks..."},
		{path: "/catalog/selection/all", target: &result.Selections, phase: FetchSelections, message: "Fetching selections..."},
	}

	for i, endpoint := range endpoints {
		e.sendProgress(progress, operationUpdate(endpoint, i+1, len(endpoints)))

		resp, err := e.api.Get(ctx, endpoint.path)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: err})
		case !resp.OK():
			result.Errors = append(result.Errors, EndpointResult{Endpoint: endpoint.path, Error: resp.Err()})
		default:
			*endpoint.target = resp.JSONData
		}
	}

	return result, nil
}
