package notify

import (
	"fmt"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// redactedFields are payload keys never published.
var redactedFields = []string{"access_token"}

// EncodeEvent returns the canonical JSON message for evt.
func EncodeEvent(evt ir.Event) ([]byte, error) {
	payload := make(ir.IRObject, len(evt.Payload))
	for k, v := range evt.Payload {
		payload[k] = v
	}
	for _, k := range redactedFields {
		delete(payload, k)
	}

	msg := ir.IRObject{
		"id":                   ir.IRString(evt.ID),
		"customer_location_id": ir.IRString(evt.EntityID),
		"seq":                  ir.IRInt(evt.Seq),
		"type":                 ir.IRString(evt.Type),
		"payload":              payload,
	}
	if evt.CommandID != "" {
		msg["command_id"] = ir.IRString(evt.CommandID)
	}

	data, err := ir.MarshalCanonical(msg)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", evt.ID, err)
	}
	return data, nil
}
