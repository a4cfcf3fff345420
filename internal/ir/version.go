package ir

// Version constants for the persisted event format.
const (
	// EventVersion is the event record schema version.
	EventVersion = "1"

	// EngineVersion is the wirelessmesh engine version.
	EngineVersion = "0.1.0"
)
