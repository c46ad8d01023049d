// Package services implements the HTTP client for the Skypro music catalog API.
//
// # Transport
//
// [APIService] sends raw requests to the configured origin and returns an [APIResponse].
// Non-2xx responses become an [*APIError] whose message is read from the body's
// message field, then detail, falling back to [FallbackMessage].
//
// # Catalog Client
//
// [CatalogService] implements [Catalog], [Favorites] and [SessionSource]:
//   - tracks, selections and favorites, accepting either a bare JSON array or a {"data": ...} wrapper
//   - relative track_file paths are resolved against the API origin
//   - signup, login (token pair stored through [Credentials]) and logout
//
// # Re-authentication
//
// Authenticated calls carry a bearer token. When a call fails with an expired
// credential ([APIError.Expired]: status 401, code token_not_valid, or a message
// mentioning the token) the client refreshes the access token once with the
// stored refresh token and retries. A second failure is returned as-is.
//
// # Credentials
//
// Sessions hold an [oauth2.Token]; the expiry is read from the access token's
// exp claim. [MemoryCredentials] keeps them in memory; the repositories package
// provides a SQLite-backed implementation.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no stored access token
//   - [shared.ErrNoRefreshToken] : refresh requested without a refresh token
//   - [shared.ErrRefreshFailed] : the refresh endpoint rejected the refresh token
//   - [shared.ErrAPIRequest] : transport failure or any [*APIError]
//   - [shared.ErrSelectionNotFound] : selection id unknown
package services
