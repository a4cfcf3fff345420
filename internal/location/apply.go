package location

import (
	"errors"
	"fmt"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// ErrInconsistentLog is returned when an event cannot be applied to the
// state built from the events before it. A log written through Decide never
// triggers it.
var ErrInconsistentLog = errors.New("inconsistent event log")

// Apply folds one event into state and returns the new state. The input is
// never modified: the device slice is copied whenever it changes.
func Apply(state CustomerLocation, evt Event) (CustomerLocation, error) {
	switch e := evt.(type) {
	case CustomerLocationAdded:
		return CustomerLocation{
			CustomerLocationID: e.CustomerLocationID,
			AccessToken:        e.AccessToken,
			Email:              e.Email,
			Added:              true,
			Devices:            []Device{},
		}, nil

	case DeviceActivated:
		if state.FindDevice(e.DeviceID) >= 0 {
			return state, nil
		}
		next := state
		next.Devices = make([]Device, len(state.Devices), len(state.Devices)+1)
		copy(next.Devices, state.Devices)
		next.Devices = append(next.Devices, Device{
			DeviceID:           e.DeviceID,
			CustomerLocationID: e.CustomerLocationID,
			Activated:          true,
		})
		return next, nil

	case RoomAssigned:
		return updateDevice(state, e.DeviceID, func(d *Device) { d.Room = e.Room })

	case NightlightToggled:
		return updateDevice(state, e.DeviceID, func(d *Device) { d.NightlightOn = e.NightlightOn })

	case CustomerLocationRemoved:
		return CustomerLocation{}, nil

	default:
		return state, fmt.Errorf("%w: unknown event %T", ErrInconsistentLog, evt)
	}
}

func updateDevice(state CustomerLocation, deviceID string, fn func(*Device)) (CustomerLocation, error) {
	i := state.FindDevice(deviceID)
	if i < 0 {
		return state, fmt.Errorf("%w: device %q not present", ErrInconsistentLog, deviceID)
	}
	next := state.Clone()
	fn(&next.Devices[i])
	return next, nil
}

// Fold replays events in order from the zero state.
func Fold(events []Event) (CustomerLocation, error) {
	return FoldFrom(CustomerLocation{}, events)
}

// FoldFrom replays events on top of state, typically a snapshot.
func FoldFrom(state CustomerLocation, events []Event) (CustomerLocation, error) {
	var err error
	for i, evt := range events {
		state, err = Apply(state, evt)
		if err != nil {
			return CustomerLocation{}, fmt.Errorf("apply event %d: %w", i, err)
		}
	}
	return state, nil
}

// FoldRecords decodes persisted records and folds them on top of state.
func FoldRecords(state CustomerLocation, records []ir.Event) (CustomerLocation, error) {
	var err error
	for _, rec := range records {
		evt, decErr := DecodeEvent(rec)
		if decErr != nil {
			return CustomerLocation{}, decErr
		}
		state, err = Apply(state, evt)
		if err != nil {
			return CustomerLocation{}, fmt.Errorf("apply %s seq %d: %w", rec.EntityID, rec.Seq, err)
		}
	}
	return state, nil
}
