// Package engine hosts customer-location instances and runs commands
// against them.
//
// ARCHITECTURE:
//
// Per-Entity Serialization:
// Each resident location is an instance guarded by a one-slot semaphore.
// A command holds the slot for its whole read-decide-append-fold cycle, so
// commands for one location are strictly serialized while commands for
// different locations run in parallel.
//
// Command Flow:
//  1. Validate the command shape (CUE schema)
//  2. Acquire the instance, loading it from the log if not resident
//  3. location.Decide against the resident state
//  4. Append the events to the log at the expected seq
//  5. Fold the events and publish the new state
//  6. Snapshot and notify, neither of which can fail the command
//
// Residency:
//
//	Unloaded -> Loading -> Ready -> Unloaded
//
// Loading replays the newest snapshot (if any) plus the events after it.
// Ready instances leave residency through Passivate, LRU eviction when the
// resident count exceeds its bound, or a failed append.
//
// Queries read an atomically published immutable state and never take the
// instance slot once the instance is Ready.
//
// CRITICAL PATTERNS:
//
// Append-Then-Fold:
// Events are durable before they are folded into memory or acknowledged. A
// failed or ambiguous append drops the instance; the next command replays
// from the log, so memory never runs ahead of storage.
//
// Cancellation:
// The caller's context bounds the wait for the slot and the load. Once the
// append has started it runs to completion, and a successful append is
// always folded.
package engine
