package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/wirelessmesh/internal/location"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Location string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s (%s)\n", e.Type, e.Location)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// EvaluateAssertions runs all assertions and returns one message per failure.
func EvaluateAssertions(ctx context.Context, h *Harness, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertDeviceOrder:
			err = h.assertDeviceOrder(ctx, a)
		case AssertDeviceState:
			err = h.assertDeviceState(ctx, a)
		case AssertLocationMissing:
			err = h.assertLocationMissing(ctx, a)
		case AssertEventCount:
			err = h.assertEventCount(ctx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

// current reads the location through the manager, as a client would.
func (h *Harness) current(ctx context.Context, id string) (location.CustomerLocation, error) {
	return h.manager.Query(ctx, id)
}

func (h *Harness) assertDeviceOrder(ctx context.Context, a Assertion) error {
	state, err := h.current(ctx, a.Location)
	if err != nil {
		return &AssertionError{Type: a.Type, Location: a.Location, Expected: fmt.Sprintf("devices %v", a.Devices), Actual: err.Error()}
	}

	actual := make([]string, len(state.Devices))
	for i, d := range state.Devices {
		actual[i] = d.DeviceID
	}
	if !slices.Equal(actual, a.Devices) {
		return &AssertionError{
			Type:     a.Type,
			Location: a.Location,
			Expected: fmt.Sprintf("devices %v", a.Devices),
			Actual:   fmt.Sprintf("devices %v", actual),
		}
	}
	return nil
}

func (h *Harness) assertDeviceState(ctx context.Context, a Assertion) error {
	state, err := h.current(ctx, a.Location)
	if err != nil {
		return &AssertionError{Type: a.Type, Location: a.Location, Expected: "device " + a.Device, Actual: err.Error()}
	}

	idx := state.FindDevice(a.Device)
	if idx < 0 {
		return &AssertionError{Type: a.Type, Location: a.Location, Expected: "device " + a.Device, Actual: "device not present"}
	}
	d := state.Devices[idx]

	if a.Room != nil && d.Room != *a.Room {
		return &AssertionError{
			Type:     a.Type,
			Location: a.Location,
			Expected: fmt.Sprintf("%s room %q", a.Device, *a.Room),
			Actual:   fmt.Sprintf("%s room %q", a.Device, d.Room),
		}
	}
	if a.NightlightOn != nil && d.NightlightOn != *a.NightlightOn {
		return &AssertionError{
			Type:     a.Type,
			Location: a.Location,
			Expected: fmt.Sprintf("%s nightlight_on=%t", a.Device, *a.NightlightOn),
			Actual:   fmt.Sprintf("%s nightlight_on=%t", a.Device, d.NightlightOn),
		}
	}
	return nil
}

func (h *Harness) assertLocationMissing(ctx context.Context, a Assertion) error {
	_, err := h.current(ctx, a.Location)
	switch {
	case err == nil:
		return &AssertionError{Type: a.Type, Location: a.Location, Expected: "NOT_FOUND", Actual: "location exists"}
	case location.IsNotFound(err):
		return nil
	default:
		return &AssertionError{Type: a.Type, Location: a.Location, Expected: "NOT_FOUND", Actual: err.Error()}
	}
}

func (h *Harness) assertEventCount(ctx context.Context, a Assertion) error {
	seq, err := h.store.LastSeq(ctx, a.Location)
	if err != nil {
		return err
	}
	if seq != int64(*a.Count) {
		return &AssertionError{
			Type:     a.Type,
			Location: a.Location,
			Expected: fmt.Sprintf("%d events", *a.Count),
			Actual:   fmt.Sprintf("%d events", seq),
		}
	}
	return nil
}
