// Package repositories implements SQLite persistence for the artist watch state.
//
// Key Implementations:
//   - [WatchRepository] : Watched artists and their known albums, with cascading removal
//   - [CheckRunRepository] : History of completed watch passes
//
// Missing rows are reported with [shared.ErrNotFound] and duplicate artists with [shared.ErrAlreadyExists],
// so callers can branch with errors.Is.
//
// Sequence numbers provide stable, human-readable ordering (the order artists were added) independent of ids.
// They are maintained in per-table sequence tables inside the same transaction as the insert.
package repositories
