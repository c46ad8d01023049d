// Package repositories implements SQLite persistence for the signed-in session and the offline track cache.
//
// Key Implementations:
//   - [SessionRepository] : key-value session storage implementing services.Credentials
//   - [TrackRepository] : models.TrackStore for the catalog track cache, with soft deletes and catalog-id lookups
//   - [TrackCache] : bulk upsert adapter used by the refresh and export tasks
//
// Sequence numbers give cached rows a stable insertion order independent of UUIDs.
// The [NextSequence] function increments per-table counters in dedicated sequence tables with a single UPDATE ... RETURNING.
package repositories
