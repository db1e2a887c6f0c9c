package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/fedplan/internal/loader"
	"github.com/roach88/fedplan/internal/queryir"
	"github.com/roach88/fedplan/internal/queryplan"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Document rejected (load, validation or planning problems)
	ExitCommandError = 2 // Command error (bad config, unreadable file, journal unavailable)
)

// CLI error codes that do not come from the loader.
const (
	ErrCodeGeneric     = "E000" // Unclassified failure
	ErrCodeConfig      = "E010" // Config file or connector catalog invalid
	ErrCodeJournal     = "E020" // Journal could not be opened or written
	ErrCodeNotFound    = "E021" // Journal entry not found
	ErrCodeWriteFailed = "E030" // Output file could not be written
	ErrCodeValidation  = "E200" // Structural problem in the built query
	ErrCodePlan        = "E300" // Planner rejected the query
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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
	Code    string `json:"code"`              // "E101", "E300", etc.
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
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

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Problem is one reported issue with a query document.
type Problem struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// String renders the problem on one line, location first.
func (p Problem) String() string {
	where := p.Path
	if p.Line > 0 {
		where = fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	if where == "" {
		return fmt.Sprintf("%s: %s", p.Code, p.Message)
	}
	return fmt.Sprintf("%s %s: %s", p.Code, where, p.Message)
}

// problemsFrom flattens a loader, validator or planner error into problems,
// preserving the order they were reported in.
func problemsFrom(err error) []Problem {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]Problem, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, problemsFrom(e)...)
		}
		return out
	}

	var le *loader.LoadError
	if errors.As(err, &le) {
		p := Problem{Code: le.Code, Path: le.Path, Message: le.Message}
		if le.Pos.IsValid() {
			p.File, p.Line, p.Column = le.Pos.Filename(), le.Pos.Line(), le.Pos.Column()
		}
		return []Problem{p}
	}

	var ve *queryir.ValidationError
	if errors.As(err, &ve) {
		return []Problem{{Code: ErrCodeValidation, Path: ve.Path, Message: ve.Message}}
	}

	var pe *queryplan.PlanError
	if errors.As(err, &pe) {
		return []Problem{{Code: ErrCodePlan, Message: err.Error()}}
	}

	return []Problem{{Code: ErrCodeGeneric, Message: err.Error()}}
}

// isFileError reports whether every problem is a file-level loader error
// (unreadable file, unknown extension). Those are command errors rather
// than document rejections.
func isFileError(problems []Problem) bool {
	for _, p := range problems {
		if p.Code != loader.ErrCodeReadFailed && p.Code != loader.ErrCodeUnknownFormat {
			return false
		}
	}
	return len(problems) > 0
}

// outputProblems reports a rejected document and returns the matching
// ExitError.
func outputProblems(formatter *OutputFormatter, heading string, problems []Problem) error {
	code := ExitFailure
	if isFileError(problems) {
		code = ExitCommandError
	}

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   map[string]any{"problems": problems},
			Error:  &CLIError{Code: problems[0].Code, Message: problems[0].Message},
		}); err != nil {
			return err
		}
		return NewExitError(code, fmt.Sprintf("%s with %d problem(s)", heading, len(problems)))
	}

	fmt.Fprintf(formatter.Writer, "✗ %s\n\n", capitalize(heading))
	for _, p := range problems {
		fmt.Fprintf(formatter.Writer, "  %s\n", p)
	}
	return NewExitError(code, fmt.Sprintf("%s with %d problem(s)", heading, len(problems)))
}

// outputCommandError reports a command-level failure (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string, err error) error {
	full := message
	if err != nil {
		full = fmt.Sprintf("%s: %v", message, err)
	}
	_ = formatter.Error(code, full, nil)
	return WrapExitError(ExitCommandError, code+": "+message, err)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
