package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wirelessmesh/internal/ir"
)

func TestEventQuery_CompileEmpty(t *testing.T) {
	sql, params, err := EventQuery{}.compile()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, entity_id, seq, type, payload, command_id FROM events ORDER BY entity_id COLLATE BINARY ASC, seq ASC", sql)
	assert.Empty(t, params)
}

func TestEventQuery_CompileAllFilters(t *testing.T) {
	sql, params, err := EventQuery{
		EntityID:  "c1",
		AfterSeq:  2,
		Types:     []string{"RoomAssigned", "NightlightToggled"},
		CommandID: "cmd-1",
		Limit:     10,
	}.compile()
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE entity_id = ? AND seq > ? AND type IN (?, ?) AND command_id = ?")
	assert.Contains(t, sql, "ORDER BY entity_id COLLATE BINARY ASC, seq ASC LIMIT ?")
	assert.Equal(t, []any{"c1", int64(2), "RoomAssigned", "NightlightToggled", "cmd-1", 10}, params)

	// Values are parameterized, never interpolated.
	assert.NotContains(t, sql, "c1")
	assert.NotContains(t, sql, "RoomAssigned")
}

func TestEventQuery_CompileErrors(t *testing.T) {
	tests := []struct {
		name string
		q    EventQuery
	}{
		{"negative after", EventQuery{EntityID: "c1", AfterSeq: -1}},
		{"after without entity", EventQuery{AfterSeq: 3}},
		{"negative limit", EventQuery{Limit: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.q.compile()
			assert.Error(t, err)
		})
	}
}

func TestEvents_FiltersAcrossEntities(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Append(ctx, "c2", 0, []ir.Event{
		newEvent("CustomerLocationAdded", ""),
		newEvent("DeviceActivated", "d9"),
	})
	require.NoError(t, err)
	_, err = s.Append(ctx, "c1", 0, []ir.Event{
		newEvent("CustomerLocationAdded", ""),
		newEvent("DeviceActivated", "d1"),
		newEvent("NightlightToggled", "d1"),
	})
	require.NoError(t, err)

	all, err := s.Events(ctx, EventQuery{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "c1", all[0].EntityID)
	assert.Equal(t, "c2", all[4].EntityID)

	activated, err := s.Events(ctx, EventQuery{Types: []string{"DeviceActivated"}})
	require.NoError(t, err)
	require.Len(t, activated, 2)
	assert.Equal(t, "c1", activated[0].EntityID)
	assert.Equal(t, "c2", activated[1].EntityID)

	tail, err := s.Events(ctx, EventQuery{EntityID: "c1", AfterSeq: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(2), tail[0].Seq)
	assert.Equal(t, "DeviceActivated", tail[0].Type)
}

func TestEvents_InvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Events(context.Background(), EventQuery{AfterSeq: 1})
	assert.Error(t, err)
}
