package location

import (
	"fmt"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// Event type names as persisted in the log.
const (
	EventCustomerLocationAdded   = "CustomerLocationAdded"
	EventDeviceActivated         = "DeviceActivated"
	EventRoomAssigned            = "RoomAssigned"
	EventNightlightToggled       = "NightlightToggled"
	EventCustomerLocationRemoved = "CustomerLocationRemoved"
)

// Event is a fact about a customer location.
type Event interface {
	EventType() string
	Payload() ir.IRObject
}

type CustomerLocationAdded struct {
	CustomerLocationID string
	AccessToken        string
	Email              string
}

type DeviceActivated struct {
	CustomerLocationID string
	DeviceID           string
}

type RoomAssigned struct {
	CustomerLocationID string
	DeviceID           string
	Room               string
}

// NightlightToggled carries the resulting state rather than a delta, so
// replay never depends on evaluation order.
type NightlightToggled struct {
	CustomerLocationID string
	DeviceID           string
	NightlightOn       bool
}

type CustomerLocationRemoved struct {
	CustomerLocationID string
}

func (CustomerLocationAdded) EventType() string   { return EventCustomerLocationAdded }
func (DeviceActivated) EventType() string         { return EventDeviceActivated }
func (RoomAssigned) EventType() string            { return EventRoomAssigned }
func (NightlightToggled) EventType() string       { return EventNightlightToggled }
func (CustomerLocationRemoved) EventType() string { return EventCustomerLocationRemoved }

func (e CustomerLocationAdded) Payload() ir.IRObject {
	return ir.IRObject{
		"customer_location_id": ir.IRString(e.CustomerLocationID),
		"access_token":         ir.IRString(e.AccessToken),
		"email":                ir.IRString(e.Email),
	}
}

func (e DeviceActivated) Payload() ir.IRObject {
	return ir.IRObject{
		"customer_location_id": ir.IRString(e.CustomerLocationID),
		"device_id":            ir.IRString(e.DeviceID),
	}
}

func (e RoomAssigned) Payload() ir.IRObject {
	return ir.IRObject{
		"customer_location_id": ir.IRString(e.CustomerLocationID),
		"device_id":            ir.IRString(e.DeviceID),
		"room":                 ir.IRString(e.Room),
	}
}

func (e NightlightToggled) Payload() ir.IRObject {
	return ir.IRObject{
		"customer_location_id": ir.IRString(e.CustomerLocationID),
		"device_id":            ir.IRString(e.DeviceID),
		"nightlight_on":        ir.IRBool(e.NightlightOn),
	}
}

func (e CustomerLocationRemoved) Payload() ir.IRObject {
	return ir.IRObject{
		"customer_location_id": ir.IRString(e.CustomerLocationID),
	}
}

// DecodeEvent converts a persisted record back into a typed event.
func DecodeEvent(rec ir.Event) (Event, error) {
	p := rec.Payload
	switch rec.Type {
	case EventCustomerLocationAdded:
		return CustomerLocationAdded{
			CustomerLocationID: p.String("customer_location_id"),
			AccessToken:        p.String("access_token"),
			Email:              p.String("email"),
		}, nil
	case EventDeviceActivated:
		return DeviceActivated{
			CustomerLocationID: p.String("customer_location_id"),
			DeviceID:           p.String("device_id"),
		}, nil
	case EventRoomAssigned:
		return RoomAssigned{
			CustomerLocationID: p.String("customer_location_id"),
			DeviceID:           p.String("device_id"),
			Room:               p.String("room"),
		}, nil
	case EventNightlightToggled:
		return NightlightToggled{
			CustomerLocationID: p.String("customer_location_id"),
			DeviceID:           p.String("device_id"),
			NightlightOn:       p.Bool("nightlight_on"),
		}, nil
	case EventCustomerLocationRemoved:
		return CustomerLocationRemoved{
			CustomerLocationID: p.String("customer_location_id"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q (entity %s seq %d)", rec.Type, rec.EntityID, rec.Seq)
	}
}
