package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// ErrSequenceConflict is returned by Append when the entity's log has moved
// past the caller's expected seq.
var ErrSequenceConflict = errors.New("sequence conflict")

// Append writes events to the end of an entity's log in one transaction.
//
// expectedSeq is the seq of the last event the caller has folded (0 for an
// empty log). Each event receives EntityID, Seq and ID; Type, Payload and
// CommandID are taken from the input. The returned slice holds the stored
// records in order.
//
// Either all events are durable when Append returns nil, or none are.
func (s *Store) Append(ctx context.Context, entityID string, expectedSeq int64, events []ir.Event) ([]ir.Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("append: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var last int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE entity_id = ?
	`, entityID).Scan(&last); err != nil {
		return nil, fmt.Errorf("append: read last seq: %w", err)
	}
	if last != expectedSeq {
		return nil, fmt.Errorf("append %s: expected seq %d, log is at %d: %w",
			entityID, expectedSeq, last, ErrSequenceConflict)
	}

	stored := make([]ir.Event, len(events))
	for i, evt := range events {
		evt.EntityID = entityID
		evt.Seq = expectedSeq + int64(i) + 1
		if evt.Payload == nil {
			evt.Payload = ir.IRObject{}
		}

		evt.ID, err = ir.EventID(evt.EntityID, evt.Seq, evt.Type, evt.Payload)
		if err != nil {
			return nil, fmt.Errorf("append: %w", err)
		}
		payloadJSON, err := marshalObject(evt.Payload)
		if err != nil {
			return nil, fmt.Errorf("append: marshal payload: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO events
			(id, entity_id, seq, type, payload, command_id, event_version, engine_version)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			evt.ID,
			evt.EntityID,
			evt.Seq,
			evt.Type,
			payloadJSON,
			evt.CommandID,
			ir.EventVersion,
			ir.EngineVersion,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("append %s seq %d: %w", entityID, evt.Seq, ErrSequenceConflict)
			}
			return nil, fmt.Errorf("append: insert: %w", err)
		}
		// Return the payload in its persisted form, as Replay will.
		evt.Payload, err = unmarshalObject(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("append: %w", err)
		}
		stored[i] = evt
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("append: commit: %w", err)
	}
	return stored, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// Replay returns an entity's events with seq > afterSeq, oldest first.
// An unknown entity yields an empty slice.
func (s *Store) Replay(ctx context.Context, entityID string, afterSeq int64) ([]ir.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_id, seq, type, payload, command_id
		FROM events
		WHERE entity_id = ? AND seq > ?
		ORDER BY seq ASC
	`, entityID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", entityID, err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", entityID, err)
	}
	return events, nil
}

// EventsByCommand returns the events produced by one command, in order.
func (s *Store) EventsByCommand(ctx context.Context, commandID string) ([]ir.Event, error) {
	return s.Events(ctx, EventQuery{CommandID: commandID})
}

func scanEvents(rows *sql.Rows) ([]ir.Event, error) {
	var events []ir.Event
	for rows.Next() {
		var evt ir.Event
		var payloadJSON string
		if err := rows.Scan(&evt.ID, &evt.EntityID, &evt.Seq, &evt.Type, &payloadJSON, &evt.CommandID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		payload, err := unmarshalObject(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("seq %d: %w", evt.Seq, err)
		}
		evt.Payload = payload
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return events, nil
}

// LastSeq returns the seq of an entity's newest event, or 0.
func (s *Store) LastSeq(ctx context.Context, entityID string) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE entity_id = ?
	`, entityID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("last seq %s: %w", entityID, err)
	}
	return last, nil
}

// ListEntities returns every entity id with at least one event, sorted.
func (s *Store) ListEntities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT entity_id FROM events
		ORDER BY entity_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list entities: scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	return ids, nil
}
