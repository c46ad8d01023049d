// Package models defines catalog entities and persistence interfaces for skyplay.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs decoded from the catalog API
//   - [Track] : immutable catalog record with its liked-by user ids
//   - [Selection] : curated list of track ids
//   - [User] : account returned by the login endpoint
//   - [Session] : credentials and identity of the signed-in user
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CachedTrack] : catalog track cached for offline listing
//
// Persistent entities implement [Model]. [Repository] is the generic CRUD surface of a cache table
// and [TrackStore] extends it with the catalog-id lookups the track cache needs.
package models
