// Package repositories implements SQLite persistence for the transfer history.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// Repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [TransferRepository] : one record per single-photo transfer attempt with status and failure stage
//
// Sequence numbers provide stable, human-readable ordering (e.g., transfer #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
