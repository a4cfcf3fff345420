package engine

import (
	"context"

	"github.com/roach88/wirelessmesh/internal/ir"
	"github.com/roach88/wirelessmesh/internal/location"
)

// EventLog is the durable, per-entity ordered log the manager appends to
// and replays from. *store.Store implements it.
type EventLog interface {
	// Append stores events after expectedSeq and returns them with ids and
	// seqs assigned. It fails rather than writing past a concurrent append.
	Append(ctx context.Context, entityID string, expectedSeq int64, events []ir.Event) ([]ir.Event, error)

	// Replay returns the entity's events with seq > afterSeq, oldest first.
	Replay(ctx context.Context, entityID string, afterSeq int64) ([]ir.Event, error)
}

// SnapshotStore persists folded states. *store.Store implements it.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap ir.Snapshot) error
	LoadSnapshot(ctx context.Context, entityID string) (ir.Snapshot, error)
}

// Notifier is told about every committed event, in log order per entity.
type Notifier interface {
	Notify(ctx context.Context, evt ir.Event) error
}

// Validator checks a command's shape before it reaches Decide.
type Validator interface {
	Validate(cmd location.Command) error
}
