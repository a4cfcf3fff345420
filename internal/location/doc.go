// Package location implements the customer-location aggregate.
//
// A customer location is a physical site holding a mesh of wireless
// nightlight devices. Its state is derived solely from its event history:
//
//	Decide(state, command) -> events | error   (validation, no side effects)
//	Apply(state, event)    -> state            (fold, no side effects)
//
// Both functions are pure. They never block, perform I/O, read a clock or
// use randomness; the engine package owns persistence and concurrency.
//
// # Invariants
//
//   - A location with Added == false is addressable only by AddCustomerLocation.
//   - Device ids are unique within a location. Activating an existing id is
//     idempotent.
//   - Devices are kept in first-activation order and never re-sorted.
//   - Each command yields at most one event, and a rejected command yields
//     none.
package location
