// Package notify publishes committed customer-location events to MQTT.
//
// The manager calls Notify after an event is durably appended and folded, in
// log order per location. Delivery is best effort: a failed publish is logged
// by the caller and never fails the command that produced the event.
//
// # Topic Structure
//
//	{prefix}/location/{customerLocationId}/events/{eventType}
//	{prefix}/system/status
//
// Subscribers wanting every event for one site use
// {prefix}/location/{id}/events/#.
//
// # Payload
//
// Each message is the canonical JSON of the event record. The access token
// stored by CustomerLocationAdded is never published.
package notify
