package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/wirelessmesh/internal/ir"
	"github.com/roach88/wirelessmesh/internal/location"
	"github.com/roach88/wirelessmesh/internal/store"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	AfterSeq int64
	Type     string // optional - filter to one event type
}

// EventRecord is one row of the events listing.
type EventRecord struct {
	Seq       int64       `json:"seq"`
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	CommandID string      `json:"command_id,omitempty"`
	Payload   ir.IRObject `json:"payload"`
}

// EventsResult is the events listing for one location.
type EventsResult struct {
	CustomerLocationID string        `json:"customer_location_id"`
	Events             []EventRecord `json:"events"`
	LastSeq            int64         `json:"last_seq"`
}

func (r EventsResult) writeText(w io.Writer) error {
	if len(r.Events) == 0 {
		_, err := fmt.Fprintf(w, "No events for %s.\n", r.CustomerLocationID)
		return err
	}
	fmt.Fprintf(w, "Events for %s (last seq %d)\n", r.CustomerLocationID, r.LastSeq)
	for _, e := range r.Events {
		fmt.Fprintf(w, "  [%d] %s", e.Seq, e.Type)
		if id := e.Payload.String("device_id"); id != "" {
			fmt.Fprintf(w, " device=%s", id)
		}
		if room, ok := e.Payload["room"]; ok {
			fmt.Fprintf(w, " room=%s", room)
		}
		if on, ok := e.Payload["nightlight_on"]; ok {
			fmt.Fprintf(w, " nightlight_on=%v", on)
		}
		if e.CommandID != "" {
			fmt.Fprintf(w, " (command %s)", e.CommandID)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events <customer-location-id>",
		Short: "List a location's event log",
		Long: `List the events recorded for a customer location, oldest first.

Examples:
  meshctl events customerId1 --db ./wirelessmesh.db
  meshctl events customerId1 --after 10 --type NightlightToggled --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, args[0], cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.AfterSeq, "after", 0, "only list events with seq greater than this")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one event type")

	return cmd
}

func runEvents(opts *EventsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if err := location.ValidateIdentifier("customer_location_id", id); err != nil {
		return formatter.Fail(err)
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	q := store.EventQuery{EntityID: id, AfterSeq: opts.AfterSeq}
	if opts.Type != "" {
		q.Types = []string{opts.Type}
	}
	events, err := st.Events(ctx, q)
	if err != nil {
		return formatter.Fail(err)
	}
	last, err := st.LastSeq(ctx, id)
	if err != nil {
		return formatter.Fail(err)
	}

	result := EventsResult{CustomerLocationID: id, Events: []EventRecord{}, LastSeq: last}
	for _, e := range events {
		result.Events = append(result.Events, EventRecord{
			Seq:       e.Seq,
			ID:        e.ID,
			Type:      e.Type,
			CommandID: e.CommandID,
			Payload:   e.Payload,
		})
	}
	formatter.VerboseLog("Matched %d event(s) for %s", len(events), id)

	return formatter.Success(result)
}
