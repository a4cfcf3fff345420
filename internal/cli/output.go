package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wirelessmesh/internal/location"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Rejected command, failed scenario, non-deterministic replay
	ExitCommandError = 2 // Command error (bad flags, unreadable config or database, I/O failure)
)

// Error codes reported in JSON output.
const (
	ErrCodeNotFound        = "E_NOT_FOUND"
	ErrCodeAlreadyExists   = "E_ALREADY_EXISTS"
	ErrCodeInvalidArgument = "E_INVALID_ARGUMENT"
	ErrCodeInternal        = "E_INTERNAL"
	ErrCodeDeterminism     = "E_DETERMINISM"
	ErrCodeTestFailed      = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error has already been written to the
	// command's output, so main must not print it again.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported reports whether err was already written to the output.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // E_NOT_FOUND, E_INTERNAL, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format. In text
// mode data is printed with fmt.Fprintln unless it implements textWriter.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	if tw, ok := data.(textWriter); ok {
		return tw.writeText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// Fail reports err and returns the ExitError the command should return.
// Domain rejections exit 1; anything else is internal and exits 2.
func (f *OutputFormatter) Fail(err error) error {
	if domainErr, ok := location.AsError(err); ok {
		details := map[string]string{}
		if domainErr.CustomerLocationID != "" {
			details["customer_location_id"] = domainErr.CustomerLocationID
		}
		if domainErr.DeviceID != "" {
			details["device_id"] = domainErr.DeviceID
		}
		if writeErr := f.Error(ErrorCode(domainErr.Code), domainErr.Message, details); writeErr != nil {
			return writeErr
		}
		return &ExitError{Code: ExitFailure, Message: domainErr.Message, Err: err, Reported: true}
	}

	if writeErr := f.Error(ErrCodeInternal, err.Error(), nil); writeErr != nil {
		return writeErr
	}
	return &ExitError{Code: ExitCommandError, Message: "internal error", Err: err, Reported: true}
}

// ErrorCode maps a domain error code to its CLI error code.
func ErrorCode(code location.Code) string {
	switch code {
	case location.CodeNotFound:
		return ErrCodeNotFound
	case location.CodeAlreadyExists:
		return ErrCodeAlreadyExists
	case location.CodeInvalidArgument:
		return ErrCodeInvalidArgument
	default:
		return ErrCodeInternal
	}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set so JSON output on Writer stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// textWriter is implemented by results with a custom text rendering.
type textWriter interface {
	writeText(w io.Writer) error
}
