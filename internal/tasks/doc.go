// Package tasks orchestrates playlist migrations between music services with real-time progress reporting.
//
// # Core Operations
//
// The [MigrationEngine] exposes the high-level operations:
//
//  1. [MigrationEngine.Migrate] : Full source → destination transfer
//     - Resolves the source playlist by ID or exact name
//     - Creates the destination playlist shell first
//     - Matches each track on the destination (ISRC, then title/artist query)
//     - Inserts all matched tracks in a single bulk call
//     - Returns detailed results including failed matches
//
//  2. [MigrationEngine.MigrateAll] : Migrate every source playlist sequentially
//     - A failed playlist is recorded and the run continues
//
//  3. [MigrationEngine.Diff] : Compare playlists across services
//     - Matches tracks via ISRC (preferred) or normalized title/artist
//     - Reports matched count, missing tracks, and extra tracks
//
//  4. [MigrationEngine.Dump] : Fetch all destination library data
//     - Retrieves playlists, songs, albums, artists, history, uploads
//     - Returns structured data for backup or analysis
//
//  5. [MigrationEngine.BulkExport] : Export many source playlists concurrently
//     - Worker pool with a shared rate limiter
//     - Writes a manifest summarizing per-playlist outcomes
//
// # Track Matching
//
// [TrackMatcher] resolves one source track to a destination track ID in two
// phases. ISRC lookup runs first when the track carries one; a metadata
// query ("{title} {artists}") runs second with title and artist filtering,
// falling back to the top raw result. An unmatched track yields
// [shared.TrackNotFoundError].
//
// # Retries
//
// Destination searches and writes run under [retry.Policy] schedules. Search
// retries start at one second, playlist writes at two. A track whose search
// retries exhaust lands in the result's Failed list; shell creation and bulk
// insertion failures abort the migration.
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
// The optional [TrackCacher] interface enables automatic track persistence during transfers.
//
// Tracks are cached best-effort (failures logged at debug) to avoid disrupting migrations.
// This supports ISRC-based matching across future operations and analytics on migration patterns.
package tasks
