package location

import (
	"fmt"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// CustomerLocation is the materialized state of one customer location.
type CustomerLocation struct {
	CustomerLocationID string   `json:"customer_location_id"`
	AccessToken        string   `json:"access_token"`
	Email              string   `json:"email"`
	Added              bool     `json:"added"`
	Devices            []Device `json:"devices"`
}

// Device is a nightlight that has been activated at a location.
type Device struct {
	DeviceID           string `json:"device_id"`
	CustomerLocationID string `json:"customer_location_id"`
	Activated          bool   `json:"activated"`
	Room               string `json:"room"`
	NightlightOn       bool   `json:"nightlight_on"`
}

// FindDevice returns the index of the device with the given id, or -1.
func (l CustomerLocation) FindDevice(deviceID string) int {
	for i := range l.Devices {
		if l.Devices[i].DeviceID == deviceID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy. Apply never mutates its input, so published
// states can be shared between goroutines without further copying.
func (l CustomerLocation) Clone() CustomerLocation {
	out := l
	if l.Devices != nil {
		out.Devices = make([]Device, len(l.Devices))
		copy(out.Devices, l.Devices)
	}
	return out
}

// Encode converts the state into its canonical IR form, used for snapshots
// and state hashes.
func (l CustomerLocation) Encode() ir.IRObject {
	devices := make(ir.IRArray, len(l.Devices))
	for i, d := range l.Devices {
		devices[i] = ir.IRObject{
			"device_id":            ir.IRString(d.DeviceID),
			"customer_location_id": ir.IRString(d.CustomerLocationID),
			"activated":            ir.IRBool(d.Activated),
			"room":                 ir.IRString(d.Room),
			"nightlight_on":        ir.IRBool(d.NightlightOn),
		}
	}
	return ir.IRObject{
		"customer_location_id": ir.IRString(l.CustomerLocationID),
		"access_token":         ir.IRString(l.AccessToken),
		"email":                ir.IRString(l.Email),
		"added":                ir.IRBool(l.Added),
		"devices":              devices,
	}
}

// DecodeState rebuilds a CustomerLocation from the output of Encode.
func DecodeState(obj ir.IRObject) (CustomerLocation, error) {
	l := CustomerLocation{
		CustomerLocationID: obj.String("customer_location_id"),
		AccessToken:        obj.String("access_token"),
		Email:              obj.String("email"),
		Added:              obj.Bool("added"),
	}

	raw, ok := obj["devices"]
	if !ok {
		return l, nil
	}
	arr, ok := raw.(ir.IRArray)
	if !ok {
		return CustomerLocation{}, fmt.Errorf("decode state: devices is %T, want array", raw)
	}
	if l.Added || len(arr) > 0 {
		l.Devices = make([]Device, 0, len(arr))
	}
	for i, v := range arr {
		d, ok := v.(ir.IRObject)
		if !ok {
			return CustomerLocation{}, fmt.Errorf("decode state: devices[%d] is %T, want object", i, v)
		}
		l.Devices = append(l.Devices, Device{
			DeviceID:           d.String("device_id"),
			CustomerLocationID: d.String("customer_location_id"),
			Activated:          d.Bool("activated"),
			Room:               d.String("room"),
			NightlightOn:       d.Bool("nightlight_on"),
		})
	}
	return l, nil
}

// Hash returns the content digest of the state.
func (l CustomerLocation) Hash() (string, error) {
	return ir.StateHash(l.Encode())
}
