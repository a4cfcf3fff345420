package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// ErrSnapshotNotFound is returned by LoadSnapshot when an entity has none.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SaveSnapshot stores the folded state of an entity at snap.Seq.
// An older snapshot never overwrites a newer one.
func (s *Store) SaveSnapshot(ctx context.Context, snap ir.Snapshot) error {
	if snap.Seq <= 0 {
		return fmt.Errorf("save snapshot %s: seq must be positive, got %d", snap.EntityID, snap.Seq)
	}
	stateJSON, err := marshalObject(snap.State)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.EntityID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (entity_id, seq, state)
		VALUES (?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE
		SET seq = excluded.seq, state = excluded.state
		WHERE excluded.seq > snapshots.seq
	`, snap.EntityID, snap.Seq, stateJSON)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", snap.EntityID, err)
	}
	return nil
}

// LoadSnapshot returns the latest snapshot for an entity.
func (s *Store) LoadSnapshot(ctx context.Context, entityID string) (ir.Snapshot, error) {
	snap := ir.Snapshot{EntityID: entityID}
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT seq, state FROM snapshots WHERE entity_id = ?
	`, entityID).Scan(&snap.Seq, &stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("load snapshot %s: %w", entityID, err)
	}

	snap.State, err = unmarshalObject(stateJSON)
	if err != nil {
		return ir.Snapshot{}, fmt.Errorf("load snapshot %s: %w", entityID, err)
	}
	return snap, nil
}

// DeleteSnapshot removes an entity's snapshot, forcing the next load to
// replay the full log.
func (s *Store) DeleteSnapshot(ctx context.Context, entityID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", entityID, err)
	}
	return nil
}
