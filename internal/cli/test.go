package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/wirelessmesh/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter string // only run scenarios whose name contains this
	Update bool   // rewrite golden files instead of comparing
}

// TestResult holds the result of running all scenarios.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Skipped   int              `json:"skipped"`
	Total     int              `json:"total"`
}

// ScenarioResult holds the result of a single scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Status string   `json:"status"` // "pass", "fail" or "skip"
	Errors []string `json:"errors,omitempty"`
	Golden string   `json:"golden,omitempty"` // "match", "mismatch", "missing" or "updated"
}

func (r TestResult) writeText(w io.Writer) error {
	for _, s := range r.Scenarios {
		switch s.Status {
		case "pass":
			fmt.Fprintf(w, "PASS  %s\n", s.Name)
		case "skip":
			fmt.Fprintf(w, "SKIP  %s\n", s.Name)
		default:
			fmt.Fprintf(w, "FAIL  %s (%s)\n", s.Name, s.File)
			for _, e := range s.Errors {
				fmt.Fprintf(w, "      %s\n", strings.ReplaceAll(e, "\n", "\n      "))
			}
		}
	}
	_, err := fmt.Fprintf(w, "\n%d passed, %d failed, %d skipped, %d total\n",
		r.Passed, r.Failed, r.Skipped, r.Total)
	return err
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files against a fresh in-memory log",
		Long: `Run YAML scenario files. Each scenario executes against its own
in-memory event log; its trace is compared with <scenarios-dir>/golden/<name>.golden
when that file exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (directory not found, unreadable scenario, etc.)

Examples:
  meshctl test ./scenarios
  meshctl test ./scenarios --filter toggle
  meshctl test ./scenarios --update`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name contains this")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files from the current traces")

	return cmd
}

func runTest(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	info, err := os.Stat(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenarios directory not found", err)
	}
	if !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s is not a directory", dir))
	}

	files, err := scenarioFiles(dir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list scenarios", err)
	}

	result := TestResult{Scenarios: []ScenarioResult{}}
	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", filepath.Base(file)), err)
		}

		sr := ScenarioResult{Name: scenario.Name, File: filepath.Base(file)}
		if opts.Filter != "" && !strings.Contains(scenario.Name, opts.Filter) {
			sr.Status = "skip"
			result.Skipped++
			result.Scenarios = append(result.Scenarios, sr)
			continue
		}

		formatter.VerboseLog("Running %s", scenario.Name)
		runScenario(cmd, opts, dir, scenario, &sr)
		if sr.Status == "pass" {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, sr)
	}
	result.Total = len(result.Scenarios)

	if result.Failed == 0 {
		return formatter.Success(result)
	}

	if opts.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeTestFailed,
				Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
			},
		}); err != nil {
			return err
		}
	} else if err := result.writeText(formatter.Writer); err != nil {
		return err
	}
	return &ExitError{Code: ExitFailure, Message: "scenarios failed", Reported: true}
}

func runScenario(cmd *cobra.Command, opts *TestOptions, dir string, scenario *harness.Scenario, sr *ScenarioResult) {
	sr.Status = "fail"

	res, err := harness.Run(cmd.Context(), scenario)
	if err != nil {
		sr.Errors = append(sr.Errors, err.Error())
		return
	}
	sr.Errors = append(sr.Errors, res.Errors...)

	trace, err := harness.MarshalTrace(scenario.Name, res)
	if err != nil {
		sr.Errors = append(sr.Errors, err.Error())
		return
	}

	goldenPath := filepath.Join(dir, "golden", scenario.Name+".golden")
	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return
		}
		if err := os.WriteFile(goldenPath, trace, 0o644); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return
		}
		sr.Golden = "updated"
	} else {
		want, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			sr.Golden = "missing"
		case err != nil:
			sr.Errors = append(sr.Errors, err.Error())
			return
		case bytes.Equal(want, trace):
			sr.Golden = "match"
		default:
			sr.Golden = "mismatch"
			sr.Errors = append(sr.Errors, fmt.Sprintf("trace differs from %s", goldenPath))
		}
	}

	if res.Pass && len(sr.Errors) == 0 {
		sr.Status = "pass"
	}
}

// scenarioFiles returns the scenario files in dir in name order.
func scenarioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}
