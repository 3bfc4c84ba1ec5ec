// Package models defines domain entities and persistence interfaces for the TRX playlist migration service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs assembled by the service
// clients from external API responses
//   - [Playlist] : Playlist metadata with an optional full track listing
//   - [Track] : Song metadata with ISRC for cross-service matching
//   - [Album] : Saved album metadata (listing only, no migration lifecycle)
//   - [UserProfile] : Source account profile
//   - [MigrationResult] : Outcome summary returned by a migration run
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Stored source account profiles
//   - [StoredPlaylist] : Cached playlists with service metadata
//   - [StoredTrack] : Cached tracks keyed by service and service ID
//   - [MigrationJob] : Migration runs tracking progress and results
//
// All persistent entities implement the Model interface providing ID generation,
// timestamps, validation, and soft delete support. The Repository[T] interface
// defines standard CRUD operations for database access.
package models
