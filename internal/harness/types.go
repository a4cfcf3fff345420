package harness

import "github.com/roach88/wirelessmesh/internal/ir"

// Step outcomes recorded in the trace.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// TraceStep records what one step did.
type TraceStep struct {
	Step    int          `json:"step"`
	Invoke  string       `json:"invoke"`
	Args    ir.IRObject  `json:"args"`
	Outcome string       `json:"outcome"`
	Events  []TraceEvent `json:"events"`
	State   ir.IRObject  `json:"state,omitempty"`
	Error   *TraceError  `json:"error,omitempty"`
}

// TraceEvent is an event appended by a step.
type TraceEvent struct {
	Seq       int64       `json:"seq"`
	Type      string      `json:"type"`
	CommandID string      `json:"command_id"`
	Payload   ir.IRObject `json:"payload"`
}

// TraceError is the rejection returned by a step.
type TraceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step met its expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace  []TraceStep `json:"trace"`
	Errors []string    `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceStep{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
