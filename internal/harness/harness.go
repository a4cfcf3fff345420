package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/wirelessmesh/internal/engine"
	"github.com/roach88/wirelessmesh/internal/ir"
	"github.com/roach88/wirelessmesh/internal/location"
	"github.com/roach88/wirelessmesh/internal/logging"
	"github.com/roach88/wirelessmesh/internal/schema"
	"github.com/roach88/wirelessmesh/internal/store"
	"github.com/roach88/wirelessmesh/internal/testutil"
)

// Harness executes scenario steps against a manager backed by its own store.
type Harness struct {
	store     *store.Store
	manager   *engine.Manager
	validator *schema.Validator
	logger    *slog.Logger

	// touched lists locations in first-reference order for the replay check.
	touched []string
	seen    map[string]bool
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database. Errors returned here are
// infrastructure failures; unmet expectations and failed assertions are
// reported in Result.Errors.
//
// Execution flow:
//  1. Open an in-memory store and a manager with sequential command ids
//  2. Execute steps, checking each against its expect clause
//  3. Evaluate assertions
//  4. Verify that replaying each touched location reproduces its state
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	validator, err := schema.New()
	if err != nil {
		return nil, err
	}

	logger := logging.Discard()
	h := &Harness{
		store:     st,
		validator: validator,
		logger:    logger,
		seen:      make(map[string]bool),
		manager: engine.NewManager(st,
			engine.WithLogger(logger),
			engine.WithValidator(validator),
			engine.WithCommandIDs(testutil.NewSequenceGenerator("cmd")),
			engine.WithSnapshotEvery(scenario.SnapshotEvery),
		),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i+1, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Invoke, err)
		}
	}

	for _, msg := range EvaluateAssertions(ctx, h, scenario.Assertions) {
		result.AddError(msg)
	}

	if err := h.verifyReplay(ctx, result); err != nil {
		return nil, err
	}

	return result, nil
}

// executeStep runs one step and appends its trace entry.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) error {
	args, err := convertArgsToIRObject(step.Args)
	if err != nil {
		return fmt.Errorf("failed to convert args: %w", err)
	}
	id, _ := step.Args["customer_location_id"].(string)
	h.touch(id)

	before, err := h.store.LastSeq(ctx, id)
	if err != nil {
		return err
	}

	state, hasState, opErr := h.invoke(ctx, step)

	trace := TraceStep{
		Step:   n,
		Invoke: step.Invoke,
		Args:   args,
		Events: []TraceEvent{},
	}

	if opErr != nil {
		domainErr, ok := location.AsError(opErr)
		if !ok {
			return opErr
		}
		trace.Outcome = OutcomeRejected
		trace.Error = &TraceError{Code: string(domainErr.Code), Message: domainErr.Message}
	} else {
		trace.Outcome = OutcomeOK
		if hasState {
			trace.State = state.Encode()
		}
	}

	appended, err := h.store.Replay(ctx, id, before)
	if err != nil {
		return err
	}
	for _, evt := range appended {
		trace.Events = append(trace.Events, TraceEvent{
			Seq:       evt.Seq,
			Type:      evt.Type,
			CommandID: evt.CommandID,
			Payload:   evt.Payload,
		})
	}
	result.Trace = append(result.Trace, trace)

	h.checkExpect(n, step, trace, result)

	h.logger.Debug("step completed",
		"step", n,
		"invoke", step.Invoke,
		"outcome", trace.Outcome,
		"events", len(trace.Events),
	)
	return nil
}

// invoke performs the step. hasState is false for operations that
// acknowledge without returning a location.
func (h *Harness) invoke(ctx context.Context, step Step) (location.CustomerLocation, bool, error) {
	id, _ := step.Args["customer_location_id"].(string)

	switch step.Invoke {
	case InvokePassivate:
		if err := location.ValidateIdentifier("customer_location_id", id); err != nil {
			return location.CustomerLocation{}, false, err
		}
		return location.CustomerLocation{}, false, h.manager.Passivate(ctx, id)

	case InvokeGetCustomerLocation:
		if err := h.validator.ValidateArgs(schema.QueryGetCustomerLocation, step.Args); err != nil {
			return location.CustomerLocation{}, false, err
		}
		state, err := h.manager.Query(ctx, id)
		return state, true, err
	}

	if err := h.validator.ValidateArgs(step.Invoke, step.Args); err != nil {
		return location.CustomerLocation{}, false, err
	}
	cmd, err := commandFromArgs(step.Invoke, step.Args)
	if err != nil {
		return location.CustomerLocation{}, false, err
	}
	state, err := h.manager.Dispatch(ctx, cmd)
	return state, cmd.CommandType() != location.CommandRemoveCustomerLocation, err
}

func (h *Harness) checkExpect(n int, step Step, trace TraceStep, result *Result) {
	if step.Expect == nil {
		if trace.Error != nil {
			result.AddError(fmt.Sprintf("step %d (%s): expected success, got %s: %s",
				n, step.Invoke, trace.Error.Code, trace.Error.Message))
		}
		return
	}

	want, _ := parseCode(step.Expect.Error)
	if trace.Error == nil {
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got success", n, step.Invoke, want))
		return
	}
	if trace.Error.Code != string(want) {
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s: %s",
			n, step.Invoke, want, trace.Error.Code, trace.Error.Message))
		return
	}
	if step.Expect.Message != "" && trace.Error.Message != step.Expect.Message {
		result.AddError(fmt.Sprintf("step %d (%s): expected message %q, got %q",
			n, step.Invoke, step.Expect.Message, trace.Error.Message))
	}
}

func (h *Harness) touch(id string) {
	if id == "" || h.seen[id] {
		return
	}
	h.seen[id] = true
	h.touched = append(h.touched, id)
}

// verifyReplay rebuilds every touched location from the log and compares it
// with what the manager answers now.
func (h *Harness) verifyReplay(ctx context.Context, result *Result) error {
	for _, id := range h.touched {
		if location.ValidateIdentifier("customer_location_id", id) != nil {
			continue
		}
		report, err := engine.VerifyReplay(ctx, h.store, h.store, id)
		if err != nil {
			return err
		}
		if !report.Match {
			result.AddError(fmt.Sprintf("replay of %s is not deterministic (state %s, snapshot %s)",
				id, report.StateHash, report.SnapshotHash))
			continue
		}

		rebuilt, err := engine.Rebuild(ctx, h.store, nil, id)
		if err != nil {
			return err
		}
		live, err := h.manager.Query(ctx, id)
		if err != nil && !location.IsNotFound(err) {
			return err
		}
		liveHash, err := live.Hash()
		if err != nil {
			return err
		}
		want := rebuilt.State
		if !want.Added {
			want = location.CustomerLocation{}
		}
		wantHash, err := want.Hash()
		if err != nil {
			return err
		}
		if liveHash != wantHash {
			result.AddError(fmt.Sprintf("replay of %s diverges from the live instance", id))
		}
	}
	return nil
}

// commandFromArgs builds a typed command from schema-checked arguments.
func commandFromArgs(name string, args map[string]any) (location.Command, error) {
	str := func(key string) string {
		s, _ := args[key].(string)
		return s
	}
	id := str("customer_location_id")

	switch location.CommandType(name) {
	case location.CommandAddCustomerLocation:
		return location.AddCustomerLocation{CustomerLocationID: id, AccessToken: str("access_token"), Email: str("email")}, nil
	case location.CommandActivateDevice:
		return location.ActivateDevice{CustomerLocationID: id, DeviceID: str("device_id")}, nil
	case location.CommandAssignRoom:
		return location.AssignRoom{CustomerLocationID: id, DeviceID: str("device_id"), Room: str("room")}, nil
	case location.CommandToggleNightlight:
		return location.ToggleNightlight{CustomerLocationID: id, DeviceID: str("device_id")}, nil
	case location.CommandRemoveCustomerLocation:
		return location.RemoveCustomerLocation{CustomerLocationID: id}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

// convertArgsToIRObject converts YAML-decoded arguments to an IRObject.
func convertArgsToIRObject(args map[string]any) (ir.IRObject, error) {
	result := make(ir.IRObject, len(args))
	for key, val := range args {
		irVal, err := convertToIRValue(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		result[key] = irVal
	}
	return result, nil
}

// convertToIRValue converts a YAML-decoded value to an IRValue.
// Nulls are rejected here with a clearer message than canonical JSON gives.
func convertToIRValue(val any) (ir.IRValue, error) {
	if val == nil {
		return nil, fmt.Errorf("null values are not allowed")
	}

	switch v := val.(type) {
	case string:
		return ir.IRString(v), nil
	case int:
		return ir.IRInt(int64(v)), nil
	case int64:
		return ir.IRInt(v), nil
	case float64:
		if v == float64(int64(v)) {
			return ir.IRInt(int64(v)), nil
		}
		return nil, fmt.Errorf("floats are not allowed: %v", v)
	case bool:
		return ir.IRBool(v), nil
	case []any:
		arr := make(ir.IRArray, len(v))
		for i, elem := range v {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		return convertArgsToIRObject(v)
	default:
		return nil, fmt.Errorf("unsupported type %T", val)
	}
}
