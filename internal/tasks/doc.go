// Package tasks runs catalog operations that span several API calls, with real-time progress reporting.
//
// # Core Operations
//
// [CatalogEngine] carries four operations:
//
//  1. [CatalogEngine.SyncFavorites] : Session-start favorites load
//     - Reads the signed-in session
//     - Fetches liked tracks and replaces the favorites store
//     - Signed-out sessions and failures leave the store empty
//
//  2. [CatalogEngine.RefreshCache] : Catalog snapshot into the local cache
//     - Fetches every catalog track
//     - Upserts them through [TrackCacher] and prunes tracks no longer listed
//
//  3. [CatalogEngine.Dump] : Raw catalog data for backup or debugging
//     - Retrieves tracks and selections as decoded JSON
//     - Collects per-endpoint failures instead of aborting
//
//  4. [CatalogEngine.BulkExport] : Export selections to disk
//     - Resolves each selection against the catalog, rate limited
//     - Writes json, csv, markdown or txt files from a worker pool
//     - Summarizes the run in export_manifest.json
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Track Caching
//
// The optional [TrackCacher] interface backs offline listings ([CatalogEngine.Tracks] with offline set).
// Online listings refresh the cache silently; cache errors are logged and never fail the listing.
//
// # Implementation
//
// [CatalogEngine] depends on:
//   - [services.Catalog] : catalog API client
//   - [services.SessionSource] : signed-in session lookup
//   - [APIClient] : raw HTTP client for dumps
//   - [TrackCacher] : optional persistence layer (repositories.TrackCache)
package tasks
