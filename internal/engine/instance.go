package engine

import (
	"context"
	"sync/atomic"

	"github.com/roach88/wirelessmesh/internal/location"
)

// Residency is the lifecycle state of a customer-location instance.
type Residency int32

const (
	// Unloaded: no in-memory state; the next reference replays the log.
	Unloaded Residency = iota

	// Loading: replay in progress; commands wait for the instance slot.
	Loading

	// Ready: state is resident and commands run one at a time.
	Ready
)

func (r Residency) String() string {
	switch r {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// view is an immutable published state together with the log position it
// reflects.
type view struct {
	state location.CustomerLocation
	seq   int64
}

// instance is the single live host of one customer location.
//
// The sem channel has one slot; the goroutine that fills it owns the
// instance until it drains it again. Fields marked "guarded by sem" must only
// be touched by that owner.
type instance struct {
	id  string
	sem chan struct{}

	residency atomic.Int32
	current   atomic.Pointer[view]
	lastUsed  atomic.Int64

	dropped       bool // guarded by sem
	sinceSnapshot int  // guarded by sem
}

func newInstance(id string) *instance {
	return &instance{id: id, sem: make(chan struct{}, 1)}
}

// lock waits for the slot or for ctx to end. A context that is already done
// never acquires.
func (i *instance) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case i.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *instance) tryLock() bool {
	select {
	case i.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (i *instance) unlock() {
	<-i.sem
}

func (i *instance) publish(state location.CustomerLocation, seq int64) {
	i.current.Store(&view{state: state, seq: seq})
	i.residency.Store(int32(Ready))
}

func (i *instance) status() Residency {
	return Residency(i.residency.Load())
}
