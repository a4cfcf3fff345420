package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/wirelessmesh/internal/engine"
	"github.com/roach88/wirelessmesh/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Parallel int
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Locations        []engine.ReplayReport `json:"locations"`
	TotalLocations   int                   `json:"total_locations"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

func (r ReplayResult) writeText(w io.Writer) error {
	if r.TotalLocations == 0 {
		_, err := fmt.Fprintln(w, "No customer locations found in database.")
		return err
	}

	fmt.Fprintf(w, "Replay Summary: %d location(s)\n", r.TotalLocations)
	fmt.Fprintln(w)
	for _, loc := range r.Locations {
		status := "ok"
		if !loc.Match {
			status = "MISMATCH"
		}
		fmt.Fprintf(w, "[%s] %s\n", status, loc.EntityID)
		fmt.Fprintf(w, "  Events: %d (last seq %d)\n", loc.Events, loc.LastSeq)
		fmt.Fprintf(w, "  State: %s\n", loc.StateHash)
		if loc.SnapshotSeq > 0 {
			fmt.Fprintf(w, "  Snapshot @%d: %s\n", loc.SnapshotSeq, loc.SnapshotHash)
		}
	}
	fmt.Fprintln(w)

	if r.AllDeterministic {
		_, err := fmt.Fprintln(w, "All locations replay deterministically")
		return err
	}
	_, err := fmt.Fprintln(w, "Determinism verification failed")
	return err
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [customer-location-id]",
		Short: "Replay event logs and verify determinism",
		Long: `Replay event logs to verify determinism.

Each location's log is folded twice from the beginning and, when a snapshot
exists, once more from the snapshot. All folds must produce the same state
hash. Without an id every location in the database is checked.

Exit codes:
  0 - All locations are deterministic
  1 - Determinism verification failed
  2 - Command error (database not found, etc.)

Examples:
  meshctl replay --db ./wirelessmesh.db
  meshctl replay customerId1 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Parallel, "parallel", 4, "locations verified concurrently")

	return cmd
}

func runReplay(opts *ReplayOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var ids []string
	if len(args) == 1 {
		ids = args
	} else {
		ids, err = st.ListEntities(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list locations", err)
		}
	}

	reports, err := verifyAll(cmd, st, ids, opts.Parallel)
	if err != nil {
		return formatter.Fail(err)
	}

	result := ReplayResult{
		Locations:        reports,
		TotalLocations:   len(reports),
		AllDeterministic: true,
	}
	for _, r := range reports {
		formatter.VerboseLog("Replayed %s: %d event(s)", r.EntityID, r.Events)
		if !r.Match {
			result.AllDeterministic = false
		}
	}

	if result.AllDeterministic {
		return formatter.Success(result)
	}

	if opts.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeDeterminism, Message: "determinism verification failed"},
		}); err != nil {
			return err
		}
	} else if err := result.writeText(formatter.Writer); err != nil {
		return err
	}
	return &ExitError{Code: ExitFailure, Message: "determinism verification failed", Reported: true}
}

// verifyAll checks ids concurrently and returns reports in id order.
func verifyAll(cmd *cobra.Command, st *store.Store, ids []string, parallel int) ([]engine.ReplayReport, error) {
	if parallel < 1 {
		parallel = 1
	}

	var mu sync.Mutex
	reports := make([]engine.ReplayReport, 0, len(ids))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(parallel)
	for _, id := range ids {
		g.Go(func() error {
			report, err := engine.VerifyReplay(ctx, st, st, id)
			if err != nil {
				return err
			}
			mu.Lock()
			reports = append(reports, report)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(reports, func(a, b engine.ReplayReport) int {
		return cmp.Compare(a.EntityID, b.EntityID)
	})
	return reports, nil
}
