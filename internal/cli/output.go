package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/autotile/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Check failure (invalid rules, failed scenarios, replay mismatch)
	ExitCommandError = 2 // Command error (unreadable files, bad flags, database errors)
)

// ExitError represents an error with a specific exit code.
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
// Returns ExitSuccess for nil and ExitFailure for errors without a code.
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
	Code    string `json:"code"`              // "E001", "E201", etc.
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

// Failure outputs a payload alongside an error, for commands whose
// result is still meaningful when a check fails.
func (f *OutputFormatter) Failure(data any, code, message string) error {
	return f.encode(CLIResponse{
		Status: "error",
		Data:   data,
		Error:  &CLIError{Code: code, Message: message},
	})
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

// TileOutput is one entry of a cell's tile stack.
type TileOutput struct {
	Tile    int    `json:"tile"`
	Variant string `json:"variant"`
}

// CellOutput is one written cell of a result.
type CellOutput struct {
	X     int          `json:"x"`
	Y     int          `json:"y"`
	Tiles []TileOutput `json:"tiles"`
}

// ChangeOutput is one entry of a diff.
type ChangeOutput struct {
	X      int          `json:"x"`
	Y      int          `json:"y"`
	Kind   string       `json:"kind"`
	Before []TileOutput `json:"before,omitempty"`
	After  []TileOutput `json:"after,omitempty"`
}

func tilesOutput(tiles []ir.TileRef) []TileOutput {
	if len(tiles) == 0 {
		return nil
	}
	out := make([]TileOutput, len(tiles))
	for i, t := range tiles {
		out[i] = TileOutput{Tile: t.Tile, Variant: t.Variant.String()}
	}
	return out
}

// cellsOutput lists a result row-major.
func cellsOutput(res ir.SolveResult) []CellOutput {
	out := make([]CellOutput, 0, len(res))
	for _, c := range res.SortedCoords() {
		out = append(out, CellOutput{X: c.X, Y: c.Y, Tiles: tilesOutput(res[c])})
	}
	return out
}

func diffOutput(d ir.Diff) []ChangeOutput {
	out := make([]ChangeOutput, len(d))
	for i, ch := range d {
		out[i] = ChangeOutput{
			X:      ch.Coord.X,
			Y:      ch.Coord.Y,
			Kind:   string(ch.Kind),
			Before: tilesOutput(ch.Before),
			After:  tilesOutput(ch.After),
		}
	}
	return out
}

// formatStack renders a stack as "1 2/rot90": identity variants are
// left implicit.
func formatStack(tiles []TileOutput) string {
	if len(tiles) == 0 {
		return "-"
	}
	parts := make([]string, len(tiles))
	for i, t := range tiles {
		if t.Variant == ir.Identity.String() {
			parts[i] = fmt.Sprint(t.Tile)
		} else {
			parts[i] = fmt.Sprintf("%d/%s", t.Tile, t.Variant)
		}
	}
	return strings.Join(parts, " ")
}

func writeCellsText(w io.Writer, cells []CellOutput) {
	for _, c := range cells {
		fmt.Fprintf(w, "  (%d,%d) %s\n", c.X, c.Y, formatStack(c.Tiles))
	}
}

func writeDiffText(w io.Writer, changes []ChangeOutput) {
	if len(changes) == 0 {
		fmt.Fprintln(w, "  no changes")
		return
	}
	for _, ch := range changes {
		fmt.Fprintf(w, "  %-8s (%d,%d) %s -> %s\n", ch.Kind, ch.X, ch.Y, formatStack(ch.Before), formatStack(ch.After))
	}
}
