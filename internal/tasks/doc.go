// Package tasks implements the artist watch engine.
//
// # Core Operations
//
// [Engine] performs one watch pass for an artist:
//
//  1. [Engine.Reconcile] : Diff the remote discography against known albums
//     - Fetches the discography from the [services.MetadataProvider]
//     - Ignores entries outside the album type filter and collapses repeated ids
//     - Reports unusable entries as fetch errors without failing the pass
//
//  2. [Engine.Check] : Reconcile, dispatch new albums, record them as known
//     - Each album is reserved by [Fingerprint] before it reaches the [services.Dispatcher]
//     - Only albums the dispatcher accepted are recorded
//     - An artist removed mid-pass gets nothing recorded
//
//  3. [Engine.DownloadDiscography] : One-off download of any artist's discography
//
// # Concurrency
//
// The [Coordinator] holds the per-artist CHECKING locks and the set of in-flight fingerprints.
// [Scheduler] runs passes on a fixed worker pool fed by a bounded queue, throttled by a token bucket, and
// polls the whole watchlist on the configured interval. Every trigger returns a [Batch] immediately.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
//
// # Membership
//
// [WatchService] adds and removes artists, reports watch status and lets users mark albums known or missing.
// [ExportWatchlist] writes the known albums of every artist to disk.
package tasks
