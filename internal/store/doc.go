// Package store provides SQLite-backed durable storage for the connection
// event log and the part-number registry.
//
// The store implements an append-only log with:
//   - Connections: one row per scan (connect or disconnect)
//   - Part serials: next free serial per part-number prefix
//   - Parts: every allocated part number
//
// # Invariants
//
// Append-only: connection rows are never updated. The only destructive
// operation is DeleteSupersededDuplicates, which runs in a single
// transaction and reports every row it removed.
//
// Deterministic ordering: every log query includes
// ORDER BY scan_time ASC, id ASC so ties on scan_time fall back to
// insertion order.
//
// Nullable target: connected_to is NULL when no connection was recorded;
// the Go side represents this as an empty string.
//
// # Connection
//
// Open holds a single connection in WAL mode with synchronous=NORMAL, a
// five second busy timeout and foreign keys on. The schema version lives in
// PRAGMA user_version and Open migrates older files forward.
//
// Timestamps are stored as INTEGER unix nanoseconds in UTC.
package store
