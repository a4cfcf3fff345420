package ir

// Event is a persisted domain event record.
//
// Seq is the 1-based position of the event within its entity's log. It is
// assigned by the event log on append and is the only ordering key.
type Event struct {
	ID        string   `json:"id"`
	EntityID  string   `json:"entity_id"`
	Seq       int64    `json:"seq"`
	Type      string   `json:"type"`
	Payload   IRObject `json:"payload"`
	CommandID string   `json:"command_id,omitempty"`
}

// Snapshot is a folded state persisted at a given log position.
type Snapshot struct {
	EntityID string   `json:"entity_id"`
	Seq      int64    `json:"seq"`
	State    IRObject `json:"state"`
}
