package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/sakif/vocapp/internal/apperror"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Domain failure (not onboarded, forbidden, partial write, ...)
	ExitCommandError = 2 // Command error (bad flags, unusable config)
)

// ExitError carries the exit code a command wants.
type ExitError struct {
	Code    int
	Message string
	Err     error
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// GetExitCode extracts the exit code from an error. Configuration and
// validation errors are command errors; anything else is ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	// A partial failure is never a usage error, whatever its cause.
	if errors.Is(err, apperror.ErrPartialLink) || errors.Is(err, apperror.ErrPartialUnlink) {
		return ExitFailure
	}
	if errors.Is(err, apperror.ErrConfiguration) || errors.Is(err, apperror.ErrValidation) {
		return ExitCommandError
	}
	return ExitFailure
}

// ErrorMessage is the line printed for a failed command: the AppError's
// user-facing message when there is one.
func ErrorMessage(err error) string {
	var appErr *apperror.AppError
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Error()
	case errors.As(err, &appErr):
		return appErr.Message
	}
	return err.Error()
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // verbose/diagnostic output, kept off stdout so JSON stays clean
	Verbose   bool
}

// Emit prints v as JSON, or calls text in text mode.
func (f *OutputFormatter) Emit(v any, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(f.Writer)
	return nil
}

// VerboseLog prints to ErrWriter when --verbose is set.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.ErrWriter, format+"\n", args...)
	}
}
