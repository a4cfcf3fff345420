package engine

import (
	"context"
	"fmt"
)

// ReplayReport describes a determinism check of one entity's log.
type ReplayReport struct {
	EntityID     string `json:"entity_id"`
	Events       int    `json:"events"`
	LastSeq      int64  `json:"last_seq"`
	StateHash    string `json:"state_hash"`
	SnapshotSeq  int64  `json:"snapshot_seq,omitempty"`
	SnapshotHash string `json:"snapshot_hash,omitempty"`
	Match        bool   `json:"match"`
}

// VerifyReplay folds an entity's full log twice and, when snaps is non-nil,
// once more from its snapshot. Match is true when every fold produced the
// same state hash.
//
// Replay is structural: the same Rebuild path serves both instance loading
// and verification, so a passing report means a restarted manager would
// reconstruct exactly this state.
func VerifyReplay(ctx context.Context, log EventLog, snaps SnapshotStore, entityID string) (ReplayReport, error) {
	report := ReplayReport{EntityID: entityID}

	first, err := Rebuild(ctx, log, nil, entityID)
	if err != nil {
		return report, fmt.Errorf("verify %s: %w", entityID, err)
	}
	second, err := Rebuild(ctx, log, nil, entityID)
	if err != nil {
		return report, fmt.Errorf("verify %s: %w", entityID, err)
	}

	report.Events = first.Replayed
	report.LastSeq = first.Seq
	report.StateHash, err = first.State.Hash()
	if err != nil {
		return report, fmt.Errorf("verify %s: %w", entityID, err)
	}
	secondHash, err := second.State.Hash()
	if err != nil {
		return report, fmt.Errorf("verify %s: %w", entityID, err)
	}
	report.Match = report.StateHash == secondHash && first.Seq == second.Seq

	if snaps == nil {
		return report, nil
	}

	fromSnap, err := Rebuild(ctx, log, snaps, entityID)
	if err != nil {
		return report, fmt.Errorf("verify %s: %w", entityID, err)
	}
	if fromSnap.SnapshotSeq == 0 {
		return report, nil
	}
	report.SnapshotSeq = fromSnap.SnapshotSeq
	report.SnapshotHash, err = fromSnap.State.Hash()
	if err != nil {
		return report, fmt.Errorf("verify %s: %w", entityID, err)
	}
	report.Match = report.Match && report.SnapshotHash == report.StateHash && fromSnap.Seq == first.Seq
	return report, nil
}
