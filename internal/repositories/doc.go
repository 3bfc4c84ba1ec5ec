// Package repositories implements SQLite persistence for cached catalog data
// and migration history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [UserRepository] : Service account persistence keyed by (service, service_id)
//   - [PlaylistRepository] : Playlist snapshots with service-specific lookups
//   - [TrackRepository] : Track caching with ISRC-based cross-service matching
//   - [MigrationRepository] : Migration run history with status tracking
//   - [TrackCacheAdapter] : tasks.TrackCacher implementation storing resolved tracks per service
//
// Sequence numbers provide stable, human-readable ordering (e.g., track #42, run #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
