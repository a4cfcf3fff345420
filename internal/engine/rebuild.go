package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/wirelessmesh/internal/location"
	"github.com/roach88/wirelessmesh/internal/store"
)

// Rebuilt is the result of folding an entity's log.
type Rebuilt struct {
	State       location.CustomerLocation
	Seq         int64 // last folded seq, 0 for an empty log
	SnapshotSeq int64 // seq of the snapshot used, 0 if none
	Replayed    int   // events folded after the snapshot
}

// Rebuild folds an entity's state from its newest snapshot, if snaps is
// non-nil and holds one, followed by the events after it. A snapshot that
// cannot be decoded is ignored and the full log is replayed.
func Rebuild(ctx context.Context, log EventLog, snaps SnapshotStore, entityID string) (Rebuilt, error) {
	var out Rebuilt

	if snaps != nil {
		snap, err := snaps.LoadSnapshot(ctx, entityID)
		switch {
		case err == nil:
			if state, decErr := location.DecodeState(snap.State); decErr == nil {
				out.State = state
				out.Seq = snap.Seq
				out.SnapshotSeq = snap.Seq
			}
		case errors.Is(err, store.ErrSnapshotNotFound):
		default:
			return Rebuilt{}, fmt.Errorf("load snapshot: %w", err)
		}
	}

	records, err := log.Replay(ctx, entityID, out.Seq)
	if err != nil {
		return Rebuilt{}, fmt.Errorf("replay: %w", err)
	}

	out.State, err = location.FoldRecords(out.State, records)
	if err != nil {
		return Rebuilt{}, fmt.Errorf("fold: %w", err)
	}
	if n := len(records); n > 0 {
		out.Seq = records[n-1].Seq
	}
	out.Replayed = len(records)
	return out, nil
}
