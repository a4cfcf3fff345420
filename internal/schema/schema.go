// Package schema validates command shapes against an embedded CUE schema
// before they reach the state machine.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/wirelessmesh/internal/location"
)

//go:embed commands.cue
var commandsCUE string

// QueryGetCustomerLocation is the definition name for the read-only query.
const QueryGetCustomerLocation = "GetCustomerLocation"

// Validator checks commands against the CUE definitions in commands.cue.
// A cue.Context is not safe for concurrent use, so calls are serialized.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	return compile(commandsCUE)
}

func compile(src string) (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("commands.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile command schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: v}, nil
}

// Validate checks a typed command. Violations are returned as
// location.Error with CodeInvalidArgument.
func (v *Validator) Validate(cmd location.Command) error {
	if cmd == nil {
		return location.NewInvalidArgument("", "command is nil")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	return v.check(string(cmd.CommandType()), cmd.LocationID(), v.ctx.Encode(cmd))
}

// ValidateArgs checks untyped arguments, as read from a scenario file or
// request body, against the named definition.
func (v *Validator) ValidateArgs(name string, args map[string]any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	locationID, _ := args["customer_location_id"].(string)
	return v.check(name, locationID, v.ctx.Encode(args))
}

// Definitions lists the command and query names the schema defines.
func (v *Validator) Definitions() ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	iter, err := v.schema.Fields(cue.Definitions(true))
	if err != nil {
		return nil, err
	}
	var names []string
	for iter.Next() {
		sel := iter.Selector()
		if !sel.IsDefinition() {
			continue
		}
		name := strings.TrimPrefix(sel.String(), "#")
		switch name {
		case "Identifier", "Text":
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (v *Validator) check(name, locationID string, value cue.Value) error {
	path := cue.ParsePath("#" + name)
	if path.Err() != nil {
		return location.NewInvalidArgument(locationID, fmt.Sprintf("unknown command %q", name))
	}
	def := v.schema.LookupPath(path)
	if !def.Exists() {
		return location.NewInvalidArgument(locationID, fmt.Sprintf("unknown command %q", name))
	}
	if err := value.Err(); err != nil {
		return location.NewInvalidArgument(locationID, fmt.Sprintf("%s: %s", name, firstError(err)))
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return location.NewInvalidArgument(locationID, fmt.Sprintf("%s: %s", name, firstError(err)))
	}
	return nil
}

// firstError reduces a CUE error list to its first message.
func firstError(err error) string {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	return errs[0].Error()
}
