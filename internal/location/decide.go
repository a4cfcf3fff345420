package location

import "golang.org/x/text/unicode/norm"

// Decide evaluates cmd against state. It returns the events to append, or a
// domain error and no events. Each accepted command yields exactly one event.
//
// Free text is NFC-normalized here, the form the log persists, so state
// folded from these events equals state replayed from the log.
func Decide(state CustomerLocation, cmd Command) ([]Event, error) {
	if err := ValidateCommand(cmd); err != nil {
		return nil, err
	}

	switch c := cmd.(type) {
	case AddCustomerLocation:
		if state.Added {
			return nil, &Error{
				Code:               CodeAlreadyExists,
				Message:            MsgLocationAlreadyExists,
				CustomerLocationID: c.CustomerLocationID,
			}
		}
		return []Event{CustomerLocationAdded{
			CustomerLocationID: c.CustomerLocationID,
			AccessToken:        norm.NFC.String(c.AccessToken),
			Email:              norm.NFC.String(c.Email),
		}}, nil

	case ActivateDevice:
		if !state.Added {
			return nil, NewLocationNotFound(c.CustomerLocationID)
		}
		// Re-activation still records an event; Apply treats it as a no-op.
		return []Event{DeviceActivated{
			CustomerLocationID: c.CustomerLocationID,
			DeviceID:           c.DeviceID,
		}}, nil

	case AssignRoom:
		if _, err := requireDevice(state, c.CustomerLocationID, c.DeviceID); err != nil {
			return nil, err
		}
		return []Event{RoomAssigned{
			CustomerLocationID: c.CustomerLocationID,
			DeviceID:           c.DeviceID,
			Room:               norm.NFC.String(c.Room),
		}}, nil

	case ToggleNightlight:
		d, err := requireDevice(state, c.CustomerLocationID, c.DeviceID)
		if err != nil {
			return nil, err
		}
		return []Event{NightlightToggled{
			CustomerLocationID: c.CustomerLocationID,
			DeviceID:           c.DeviceID,
			NightlightOn:       !d.NightlightOn,
		}}, nil

	case RemoveCustomerLocation:
		if !state.Added {
			return nil, NewLocationNotFound(c.CustomerLocationID)
		}
		return []Event{CustomerLocationRemoved{CustomerLocationID: c.CustomerLocationID}}, nil
	}

	// Unreachable: ValidateCommand rejects unknown command types.
	return nil, NewInvalidArgument(cmd.LocationID(), "unsupported command")
}

// Get answers the GetCustomerLocation query for the location id.
func Get(state CustomerLocation, id string) (CustomerLocation, error) {
	if !state.Added {
		return CustomerLocation{}, NewLocationNotFound(id)
	}
	return state, nil
}

func requireDevice(state CustomerLocation, locationID, deviceID string) (Device, error) {
	if !state.Added {
		return Device{}, NewLocationNotFound(locationID)
	}
	i := state.FindDevice(deviceID)
	if i < 0 {
		return Device{}, newNotFound(locationID, deviceID, MsgDeviceNotFound)
	}
	return state.Devices[i], nil
}
