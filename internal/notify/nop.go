package notify

import (
	"context"

	"github.com/roach88/wirelessmesh/internal/ir"
)

// Nop discards every event. It is used when MQTT is disabled.
type Nop struct{}

func (Nop) Notify(context.Context, ir.Event) error { return nil }

func (Nop) Close() error { return nil }
