package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// newEvent creates an unsequenced event ready for Append.
func newEvent(eventType, deviceID string) ir.Event {
	payload := ir.IRObject{"customer_location_id": ir.IRString("c1")}
	if deviceID != "" {
		payload["device_id"] = ir.IRString(deviceID)
	}
	return ir.Event{Type: eventType, Payload: payload, CommandID: "cmd-" + eventType}
}
