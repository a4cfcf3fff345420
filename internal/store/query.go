package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// EventQuery selects events across the whole log. Zero fields match
// everything.
type EventQuery struct {
	EntityID  string
	AfterSeq  int64    // only with EntityID; seq is per entity
	Types     []string // any of
	CommandID string
	Limit     int
}

// compile renders q as parameterized SQL. Results are always ordered by
// (entity_id, seq) and values are never interpolated.
func (q EventQuery) compile() (string, []any, error) {
	if q.AfterSeq < 0 {
		return "", nil, fmt.Errorf("after seq must be >= 0, got %d", q.AfterSeq)
	}
	if q.AfterSeq > 0 && q.EntityID == "" {
		return "", nil, fmt.Errorf("after seq requires an entity id")
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("limit must be >= 0, got %d", q.Limit)
	}

	var (
		where  []string
		params []any
	)
	if q.EntityID != "" {
		where = append(where, "entity_id = ?")
		params = append(params, q.EntityID)
	}
	if q.AfterSeq > 0 {
		where = append(where, "seq > ?")
		params = append(params, q.AfterSeq)
	}
	if len(q.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(q.Types)), ", ")
		where = append(where, "type IN ("+placeholders+")")
		for _, t := range q.Types {
			params = append(params, t)
		}
	}
	if q.CommandID != "" {
		where = append(where, "command_id = ?")
		params = append(params, q.CommandID)
	}

	var b strings.Builder
	b.WriteString("SELECT id, entity_id, seq, type, payload, command_id FROM events")
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY entity_id COLLATE BINARY ASC, seq ASC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// Events returns the events matching q.
func (s *Store) Events(ctx context.Context, q EventQuery) ([]ir.Event, error) {
	query, params, err := q.compile()
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	return events, nil
}
