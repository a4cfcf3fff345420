package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/wirelessmesh/internal/ir"
	"github.com/roach88/wirelessmesh/internal/location"
	"github.com/roach88/wirelessmesh/internal/store"
	"github.com/roach88/wirelessmesh/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// hookLog wraps a real store so tests can block or fail appends.
type hookLog struct {
	*store.Store

	beforeAppend func(ctx context.Context) error
	afterAppend  func() error
}

func (l *hookLog) Append(ctx context.Context, entityID string, expectedSeq int64, events []ir.Event) ([]ir.Event, error) {
	if l.beforeAppend != nil {
		if err := l.beforeAppend(ctx); err != nil {
			return nil, err
		}
	}
	stored, err := l.Store.Append(ctx, entityID, expectedSeq, events)
	if err == nil && l.afterAppend != nil {
		if hookErr := l.afterAppend(); hookErr != nil {
			return nil, hookErr
		}
	}
	return stored, err
}

// recordingNotifier collects notified events and optionally fails.
type recordingNotifier struct {
	mu     sync.Mutex
	events []ir.Event
	err    error
}

func (n *recordingNotifier) Notify(_ context.Context, evt ir.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
	return n.err
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, evt := range n.events {
		out[i] = evt.Type
	}
	return out
}

func newTestManager(t *testing.T, log EventLog, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithLogger(discardLogger()),
		WithCommandIDs(testutil.NewSequenceGenerator("test")),
	}
	return NewManager(log, append(base, opts...)...)
}

func mustDispatch(t *testing.T, m *Manager, cmds ...location.Command) location.CustomerLocation {
	t.Helper()
	var state location.CustomerLocation
	var err error
	for _, cmd := range cmds {
		state, err = m.Dispatch(context.Background(), cmd)
		require.NoError(t, err, "dispatch %s", cmd.CommandType())
	}
	return state
}

func addC1() location.AddCustomerLocation {
	return location.AddCustomerLocation{CustomerLocationID: "c1", AccessToken: "accessToken", Email: "email"}
}

func activate(id, device string) location.ActivateDevice {
	return location.ActivateDevice{CustomerLocationID: id, DeviceID: device}
}

func toggle(id, device string) location.ToggleNightlight {
	return location.ToggleNightlight{CustomerLocationID: id, DeviceID: device}
}

func deviceIDs(state location.CustomerLocation) []string {
	ids := make([]string, len(state.Devices))
	for i, d := range state.Devices {
		ids[i] = d.DeviceID
	}
	return ids
}
