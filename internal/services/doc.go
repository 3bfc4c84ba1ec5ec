// Package services defines the [Source] and [Destination] interfaces for
// music streaming providers and implements them for Spotify and YouTube Music.
//
// # Interfaces
//
// [Source] covers the read side of a migration: profile, playlist and album
// listings, and full track fetches. [Destination] covers the write side:
// track search, playlist creation and bulk insertion. A provider may
// implement both.
//
// # Spotify Implementation
//
// [SpotifyService] implements [Source] and [OAuthService] using OAuth2 with
// automatic token refresh. Paginated endpoints are drained completely before
// returning, so callers always see whole playlists.
//
// # YouTube Music Implementation
//
// [YTMusicService] implements [Destination] by talking to the FastAPI proxy
// server (music/) wrapping ytmusicapi. The auth_file path is sent via the
// X-Auth-File header on each request, and every call waits on a shared rate
// limiter before hitting the proxy.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends [Source] for OAuth providers.
// [SpotifyService] implements it for the server-side flow used by the CLI.
//
// # Error Handling
//
// Failures surface as the typed errors from the shared package so callers
// can branch on kind rather than message text:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.RateLimitError] : provider returned 429, carries Retry-After
//   - [shared.PlaylistNotFoundError] : playlist ID not found
//
// API errors carry their HTTP status through a StatusCode method so
// [shared.Categorize] can pick it up without string parsing.
package services
