// Package harness runs customer-location scenarios against the real manager
// and compares their traces with golden files.
//
// # Scenario Format
//
//	name: activate_devices_order
//	description: "Devices keep first-activation order"
//	snapshot_every: 2          # optional
//	steps:
//	  - invoke: AddCustomerLocation
//	    args: { customer_location_id: c1, access_token: t, email: e@x }
//	  - invoke: GetCustomerLocation
//	    args: { customer_location_id: c2 }
//	    expect:
//	      error: NOT_FOUND
//	      message: "customerLocation does not exist."
//	assertions:
//	  - type: device_order
//	    location: c1
//	    devices: [d1, d2, d3]
//	  - type: device_state
//	    location: c1
//	    device: d1
//	    room: person-cave
//	    nightlight_on: true
//	  - type: location_missing
//	    location: c2
//	  - type: event_count
//	    location: c1
//	    count: 4
//
// Steps invoke one of the five commands, GetCustomerLocation, or Passivate
// (unload the instance so the next step replays the log). Arguments are
// checked against the command schema before dispatch; a step without expect
// must succeed.
//
// # Determinism
//
// Each run uses a fresh in-memory store and sequential command ids
// (cmd-000001, ...), so the trace is byte-identical across runs. After the
// steps, every location the scenario touched is replayed and must fold to
// the state the manager holds.
//
// Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
