package engine

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/wirelessmesh/internal/ir"
	"github.com/roach88/wirelessmesh/internal/location"
)

// DefaultMaxResident bounds the number of instances held in memory.
const DefaultMaxResident = 1024

// Unload reasons, used in logs and metrics.
const (
	unloadPassivate  = "passivate"
	unloadLRU        = "lru"
	unloadLoadFailed = "load_failed"
	unloadAppendFail = "append_failed"
	unloadFoldFailed = "fold_failed"
)

// Manager hosts at most one live instance per customer location and runs
// commands against it.
//
// Thread-safety model:
//   - Dispatch, Query and Passivate are safe from any goroutine
//   - Commands for one location are serialized; different locations run in
//     parallel
//   - Query never waits for a running command once the instance is Ready
type Manager struct {
	log       EventLog
	snapshots SnapshotStore
	clock     *Clock
	ids       CommandIDGenerator
	validator Validator
	notifier  Notifier
	metrics   *Metrics
	logger    *slog.Logger

	maxResident   int
	snapshotEvery int

	mu        sync.Mutex
	instances map[string]*instance
}

// Option configures a Manager.
type Option func(*Manager)

// WithMaxResident bounds resident instances. When a command or query leaves
// more than n resident, the least recently used idle instances are unloaded.
// n <= 0 disables the bound.
func WithMaxResident(n int) Option {
	return func(m *Manager) {
		m.maxResident = n
	}
}

// WithSnapshotEvery saves a snapshot after at least n events have been
// appended to an instance since its last snapshot. 0 disables saving.
func WithSnapshotEvery(n int) Option {
	return func(m *Manager) {
		m.snapshotEvery = n
	}
}

// WithSnapshotStore overrides the snapshot store. By default the event log
// is used when it implements SnapshotStore. nil disables snapshots entirely.
func WithSnapshotStore(s SnapshotStore) Option {
	return func(m *Manager) {
		m.snapshots = s
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics records manager metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithNotifier publishes committed events.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		m.notifier = n
	}
}

// WithValidator checks command shapes before Decide.
func WithValidator(v Validator) Option {
	return func(m *Manager) {
		m.validator = v
	}
}

// WithCommandIDs sets the command id generator. Defaults to UUIDv7Generator.
func WithCommandIDs(g CommandIDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithClock sets the logical clock used for LRU ordering.
func WithClock(c *Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// NewManager creates a Manager over the given event log.
func NewManager(log EventLog, opts ...Option) *Manager {
	m := &Manager{
		log:         log,
		clock:       NewClock(),
		ids:         UUIDv7Generator{},
		maxResident: DefaultMaxResident,
		instances:   make(map[string]*instance),
	}
	if snaps, ok := log.(SnapshotStore); ok {
		m.snapshots = snaps
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Dispatch runs a command against its location and returns the state after
// the command's events have been appended and folded.
//
// A rejected command returns a *location.Error and changes nothing. An
// infrastructure failure returns a *RuntimeError.
func (m *Manager) Dispatch(ctx context.Context, cmd location.Command) (location.CustomerLocation, error) {
	started := time.Now()
	if cmd == nil {
		return location.CustomerLocation{}, location.NewInvalidArgument("", "command is nil")
	}
	name := string(cmd.CommandType())

	if m.validator != nil {
		if err := m.validator.Validate(cmd); err != nil {
			m.metrics.observeCommand(name, outcomeRejected, started)
			return location.CustomerLocation{}, err
		}
	}

	inst, err := m.acquire(ctx, cmd.LocationID())
	if err != nil {
		m.metrics.observeCommand(name, failureOutcome(ctx), started)
		return location.CustomerLocation{}, err
	}

	state, outcome, err := m.execute(ctx, inst, cmd)
	inst.unlock()
	m.evictIdle()

	m.metrics.observeCommand(name, outcome, started)
	return state, err
}

// execute runs with the instance slot held.
func (m *Manager) execute(ctx context.Context, inst *instance, cmd location.Command) (location.CustomerLocation, string, error) {
	cur := inst.current.Load()

	events, err := location.Decide(cur.state, cmd)
	if err != nil {
		m.logger.Debug("command rejected",
			"entity_id", inst.id,
			"command", cmd.CommandType(),
			"error", err,
		)
		return location.CustomerLocation{}, outcomeRejected, err
	}
	if len(events) == 0 {
		return cur.state.Clone(), outcomeAccepted, nil
	}

	// Last point at which the caller can withdraw the command.
	if err := ctx.Err(); err != nil {
		return location.CustomerLocation{}, outcomeCancelled, err
	}

	commandID := m.ids.Generate()
	records := make([]ir.Event, len(events))
	for i, evt := range events {
		records[i] = ir.Event{
			Type:      evt.EventType(),
			Payload:   evt.Payload(),
			CommandID: commandID,
		}
	}

	commitCtx := context.WithoutCancel(ctx)
	stored, err := m.log.Append(commitCtx, inst.id, cur.seq, records)
	if err != nil {
		m.logger.Error("append failed",
			"entity_id", inst.id,
			"command_id", commandID,
			"expected_seq", cur.seq,
			"error", err,
		)
		m.drop(inst, unloadAppendFail)
		return location.CustomerLocation{}, outcomeFailed, newAppendError(inst.id, commandID, err)
	}

	// Fold what the log returned, not what was submitted, so resident state
	// matches a later replay byte for byte.
	next, err := location.FoldRecords(cur.state, stored)
	if err != nil {
		m.logger.Error("fold failed after append",
			"entity_id", inst.id,
			"command_id", commandID,
			"error", err,
		)
		m.drop(inst, unloadFoldFailed)
		return location.CustomerLocation{}, outcomeFailed, newFoldError(inst.id, commandID, err)
	}

	seq := stored[len(stored)-1].Seq
	inst.publish(next, seq)
	m.metrics.observeEvents(stored)

	m.maybeSnapshot(commitCtx, inst, next, seq, len(stored))
	m.notify(commitCtx, stored)

	return next.Clone(), outcomeAccepted, nil
}

// Query answers GetCustomerLocation. A Ready instance is read without taking
// its slot; otherwise the instance is loaded first.
func (m *Manager) Query(ctx context.Context, id string) (location.CustomerLocation, error) {
	if err := location.ValidateIdentifier("customer_location_id", id); err != nil {
		return location.CustomerLocation{}, err
	}

	m.mu.Lock()
	inst := m.instances[id]
	m.mu.Unlock()

	if inst != nil {
		if v := inst.current.Load(); v != nil {
			inst.lastUsed.Store(m.clock.Next())
			return getState(v, id)
		}
	}

	inst, err := m.acquire(ctx, id)
	if err != nil {
		return location.CustomerLocation{}, err
	}
	v := inst.current.Load()
	inst.unlock()
	m.evictIdle()

	return getState(v, id)
}

func getState(v *view, id string) (location.CustomerLocation, error) {
	state, err := location.Get(v.state, id)
	if err != nil {
		return location.CustomerLocation{}, err
	}
	return state.Clone(), nil
}

// Passivate unloads a location's instance once any running command has
// finished. The next reference replays the log. Passivating a location that
// is not resident is a no-op.
func (m *Manager) Passivate(ctx context.Context, id string) error {
	m.mu.Lock()
	inst := m.instances[id]
	m.mu.Unlock()
	if inst == nil {
		return nil
	}

	if err := inst.lock(ctx); err != nil {
		return err
	}
	defer inst.unlock()

	if !inst.dropped {
		m.drop(inst, unloadPassivate)
	}
	return nil
}

// Residency reports the lifecycle state of a location's instance.
func (m *Manager) Residency(id string) Residency {
	m.mu.Lock()
	inst := m.instances[id]
	m.mu.Unlock()
	if inst == nil {
		return Unloaded
	}
	return inst.status()
}

// Resident returns the number of instances currently in memory.
func (m *Manager) Resident() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

// acquire returns the instance for id, loaded and with its slot held.
func (m *Manager) acquire(ctx context.Context, id string) (*instance, error) {
	for {
		inst := m.instanceFor(id)
		if err := inst.lock(ctx); err != nil {
			return nil, err
		}
		if inst.dropped {
			// Unloaded while we waited; a fresh instance replaces it.
			inst.unlock()
			continue
		}

		inst.lastUsed.Store(m.clock.Next())
		if inst.status() == Ready {
			return inst, nil
		}

		if err := m.load(ctx, inst); err != nil {
			m.drop(inst, unloadLoadFailed)
			inst.unlock()
			return nil, err
		}
		return inst, nil
	}
}

func (m *Manager) instanceFor(id string) *instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		inst = newInstance(id)
		inst.lastUsed.Store(m.clock.Next())
		m.instances[id] = inst
		m.metrics.setResident(len(m.instances))
	}
	return inst
}

// load rebuilds the instance from the log. Caller holds the slot.
func (m *Manager) load(ctx context.Context, inst *instance) error {
	inst.residency.Store(int32(Loading))

	rebuilt, err := Rebuild(ctx, m.log, m.snapshots, inst.id)
	if err != nil {
		m.logger.Error("instance load failed", "entity_id", inst.id, "error", err)
		return newLoadError(inst.id, err)
	}

	inst.sinceSnapshot = rebuilt.Replayed
	inst.publish(rebuilt.State, rebuilt.Seq)
	m.metrics.observeLoad(rebuilt.Replayed)

	m.logger.Debug("instance loaded",
		"entity_id", inst.id,
		"seq", rebuilt.Seq,
		"snapshot_seq", rebuilt.SnapshotSeq,
		"replayed", rebuilt.Replayed,
	)
	return nil
}

// drop unloads an instance whose slot the caller holds.
func (m *Manager) drop(inst *instance, reason string) {
	m.mu.Lock()
	m.unloadLocked(inst, reason)
	m.mu.Unlock()
}

// unloadLocked requires m.mu and the instance slot.
func (m *Manager) unloadLocked(inst *instance, reason string) {
	if m.instances[inst.id] == inst {
		delete(m.instances, inst.id)
	}
	inst.dropped = true
	inst.current.Store(nil)
	inst.residency.Store(int32(Unloaded))

	m.metrics.observeUnload(reason)
	m.metrics.setResident(len(m.instances))
	m.logger.Debug("instance unloaded", "entity_id", inst.id, "reason", reason)
}

// evictIdle unloads least recently used idle instances until the resident
// count is within bounds. Busy instances are skipped.
func (m *Manager) evictIdle() {
	if m.maxResident <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	excess := len(m.instances) - m.maxResident
	if excess <= 0 {
		return
	}

	candidates := make([]*instance, 0, len(m.instances))
	for _, inst := range m.instances {
		candidates = append(candidates, inst)
	}
	slices.SortFunc(candidates, func(a, b *instance) int {
		return cmp.Compare(a.lastUsed.Load(), b.lastUsed.Load())
	})

	for _, inst := range candidates {
		if excess == 0 {
			break
		}
		if !inst.tryLock() {
			continue
		}
		m.unloadLocked(inst, unloadLRU)
		inst.unlock()
		excess--
	}
}

func (m *Manager) maybeSnapshot(ctx context.Context, inst *instance, state location.CustomerLocation, seq int64, appended int) {
	if m.snapshots == nil || m.snapshotEvery <= 0 {
		return
	}
	inst.sinceSnapshot += appended
	if inst.sinceSnapshot < m.snapshotEvery {
		return
	}

	snap := ir.Snapshot{EntityID: inst.id, Seq: seq, State: state.Encode()}
	if err := m.snapshots.SaveSnapshot(ctx, snap); err != nil {
		m.logger.Warn("snapshot failed", "entity_id", inst.id, "seq", seq, "error", err)
		return
	}
	inst.sinceSnapshot = 0
}

func (m *Manager) notify(ctx context.Context, events []ir.Event) {
	if m.notifier == nil {
		return
	}
	for _, evt := range events {
		if err := m.notifier.Notify(ctx, evt); err != nil {
			m.logger.Warn("event notification failed",
				"entity_id", evt.EntityID,
				"seq", evt.Seq,
				"type", evt.Type,
				"error", err,
			)
		}
	}
}

func failureOutcome(ctx context.Context) string {
	if ctx.Err() != nil {
		return outcomeCancelled
	}
	return outcomeFailed
}
