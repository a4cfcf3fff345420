package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/wirelessmesh/internal/schema"
)

// ValidateResult reports a schema check of one command.
type ValidateResult struct {
	Command string `json:"command"`
	Valid   bool   `json:"valid"`
}

func (r ValidateResult) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: valid\n", r.Command)
	return err
}

// DefinitionsResult lists the commands the schema knows.
type DefinitionsResult struct {
	Commands []string `json:"commands"`
}

func (r DefinitionsResult) writeText(w io.Writer) error {
	fmt.Fprintln(w, "Commands:")
	for _, name := range r.Commands {
		fmt.Fprintf(w, "  %s\n", name)
	}
	return nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [command] [json-args]",
		Short: "Check command arguments against the schema",
		Long: `Check command arguments against the command schema without touching
the event log. With no arguments the known commands are listed.

Examples:
  meshctl validate
  meshctl validate AssignRoom '{"customer_location_id":"c1","device_id":"d1","room":"kitchen"}'`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	validator, err := schema.New()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load command schema", err)
	}

	if len(args) == 0 {
		names, err := validator.Definitions()
		if err != nil {
			return formatter.Fail(err)
		}
		return formatter.Success(DefinitionsResult{Commands: names})
	}

	raw := "{}"
	if len(args) == 2 {
		raw = args[1]
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return WrapExitError(ExitCommandError, "arguments must be a JSON object", err)
	}

	if err := validator.ValidateArgs(args[0], fields); err != nil {
		return formatter.Fail(err)
	}
	return formatter.Success(ValidateResult{Command: args[0], Valid: true})
}
