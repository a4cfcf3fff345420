package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/wirelessmesh/internal/location"
)

// Scenario is a scripted sequence of commands with assertions on the
// resulting state and log.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// SnapshotEvery enables snapshots every n events. Zero disables them.
	SnapshotEvery int `yaml:"snapshot_every,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions"`
}

// Step invokes one operation.
type Step struct {
	// Invoke is a command name, GetCustomerLocation or Passivate.
	Invoke string `yaml:"invoke"`

	// Args are the operation's arguments, keyed by wire field name.
	Args map[string]any `yaml:"args"`

	// Expect describes a required failure. Nil means the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the required rejection of a step.
type Expect struct {
	// Error is an error code, e.g. NOT_FOUND.
	Error string `yaml:"error"`

	// Message, if set, must equal the error message exactly.
	Message string `yaml:"message,omitempty"`
}

// Assertion checks the final state or log of one location.
type Assertion struct {
	Type     string `yaml:"type"`
	Location string `yaml:"location"`

	// device_order
	Devices []string `yaml:"devices,omitempty"`

	// device_state
	Device       string  `yaml:"device,omitempty"`
	Room         *string `yaml:"room,omitempty"`
	NightlightOn *bool   `yaml:"nightlight_on,omitempty"`

	// event_count
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertDeviceOrder     = "device_order"
	AssertDeviceState     = "device_state"
	AssertLocationMissing = "location_missing"
	AssertEventCount      = "event_count"
)

// Harness-level operations that are not commands.
const (
	InvokeGetCustomerLocation = "GetCustomerLocation"
	InvokePassivate           = "Passivate"
)

var invokable = []string{
	string(location.CommandAddCustomerLocation),
	string(location.CommandActivateDevice),
	string(location.CommandAssignRoom),
	string(location.CommandToggleNightlight),
	string(location.CommandRemoveCustomerLocation),
	InvokeGetCustomerLocation,
	InvokePassivate,
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so that typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SnapshotEvery < 0 {
		return fmt.Errorf("snapshot_every must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Invoke == "" {
			return fmt.Errorf("steps[%d]: invoke is required", i)
		}
		if !slices.Contains(invokable, step.Invoke) {
			return fmt.Errorf("steps[%d]: unknown operation %q (want one of %s)", i, step.Invoke, strings.Join(invokable, ", "))
		}
		if step.Args == nil {
			return fmt.Errorf("steps[%d]: args is required", i)
		}
		if step.Expect != nil {
			if _, err := parseCode(step.Expect.Error); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", i, err)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Location == "" {
		return fmt.Errorf("assertions[%d]: location is required", index)
	}

	switch a.Type {
	case AssertDeviceOrder:
		if a.Devices == nil {
			return fmt.Errorf("assertions[%d]: devices is required for device_order", index)
		}
	case AssertDeviceState:
		if a.Device == "" {
			return fmt.Errorf("assertions[%d]: device is required for device_state", index)
		}
		if a.Room == nil && a.NightlightOn == nil {
			return fmt.Errorf("assertions[%d]: room or nightlight_on is required for device_state", index)
		}
	case AssertLocationMissing:
	case AssertEventCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for event_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// parseCode accepts both wire codes (NOT_FOUND) and their CamelCase names
// (NotFound).
func parseCode(s string) (location.Code, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "_", "")) {
	case "NOTFOUND":
		return location.CodeNotFound, nil
	case "ALREADYEXISTS":
		return location.CodeAlreadyExists, nil
	case "INVALIDARGUMENT":
		return location.CodeInvalidArgument, nil
	case "":
		return "", fmt.Errorf("error is required")
	default:
		return "", fmt.Errorf("unknown error code %q", s)
	}
}
