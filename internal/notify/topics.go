package notify

import "strings"

// DefaultPrefix is the topic root used when none is configured.
const DefaultPrefix = "wirelessmesh"

// Topics builds MQTT topic names under a common prefix.
//
// Identifiers are inserted verbatim except for the MQTT wildcard and level
// separator characters, which are replaced with '_' so a location id can
// never widen a subscription or add levels.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return t.Prefix
}

// LocationEvent is the topic for one event type of one location.
func (t Topics) LocationEvent(locationID, eventType string) string {
	return t.prefix() + "/location/" + sanitize(locationID) + "/events/" + sanitize(eventType)
}

// LocationEvents is the wildcard subscription for all events of a location.
func (t Topics) LocationEvents(locationID string) string {
	return t.prefix() + "/location/" + sanitize(locationID) + "/events/#"
}

// AllEvents is the wildcard subscription for every location's events.
func (t Topics) AllEvents() string {
	return t.prefix() + "/location/+/events/#"
}

// SystemStatus is the retained online/offline topic.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

var topicReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

func sanitize(level string) string {
	if level == "" {
		return "_"
	}
	return topicReplacer.Replace(level)
}
