// Package store provides the SQLite-backed event log for customer locations.
//
// The log is append-only and partitioned by entity id:
//   - Events: one row per domain event, ordered by (entity_id, seq)
//   - Snapshots: the latest folded state per entity, an optional shortcut
//     for replay
//
// # Ordering
//
// Seq is a per-entity logical position starting at 1. It is assigned on
// append and is the only ordering key; wall-clock time is never stored.
// Every read uses ORDER BY seq ASC so replays are repeatable.
//
// # Concurrency
//
// Append is optimistic: the caller states the seq it last observed and the
// append fails with ErrSequenceConflict if another writer got there first.
// The UNIQUE(entity_id, seq) constraint backs the check at the storage level.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Payloads are stored as RFC 8785 canonical JSON and event ids are
// content addresses computed by ir.EventID.
package store
