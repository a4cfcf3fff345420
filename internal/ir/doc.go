// Package ir provides the persisted representation of domain events.
//
// Event payloads are constrained to a small set of JSON-compatible value
// types (string, int, bool, array, object). Floats are not representable, so
// an event payload always serializes to the same bytes.
//
// All other internal packages may import ir; ir imports nothing internal.
//
// Key constraints:
//   - Payloads use IRObject, never map[string]any
//   - Canonical JSON (RFC 8785, NFC strings) is the only encoding used for
//     content-addressed identity
//   - Ordering uses the per-entity Seq, never wall-clock time
package ir
