package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Dmitrij-bot/vinabook/internal/client"
	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the API or the store rejected the request
	ExitCommandError = 2 // bad flags, unreadable config, storage unavailable
)

// ExitError carries the exit code a command should end with. Reported is
// set once the formatter has already shown it.
type ExitError struct {
	Code     int
	Message  string
	Err      error
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

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns ExitFailure for errors that are not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// IsReported tells main whether err was already printed.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

type CLIResponse struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// Success writes data as JSON, or calls text with a tab-aligned writer.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}

	tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func (f *OutputFormatter) Error(code, message string, status int) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Status: status},
		})
	}

	fmt.Fprintf(f.GetErrWriter(), "Error [%s]: %s\n", code, message)
	return nil
}

// VerboseLog goes to ErrWriter so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Report prints err and returns the ExitError the command ends with.
func (f *OutputFormatter) Report(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return err
	}

	code, exit := classify(err)
	_ = f.Error(code, messageOf(err), client.StatusOf(err))

	return &ExitError{Code: exit, Message: "command failed", Err: err, Reported: true}
}

func classify(err error) (string, int) {
	var exitErr *ExitError
	switch {
	case errors.As(err, &exitErr):
		return "E_COMMAND", exitErr.Code
	case errors.Is(err, resource.ErrValidation):
		return "E_VALIDATION", ExitFailure
	case errors.Is(err, store.ErrEmptyCart):
		return "E_EMPTY_CART", ExitFailure
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrLoginRejected):
		return "E_SESSION", ExitFailure
	case client.IsUnauthorized(err):
		return "E_UNAUTHORIZED", ExitFailure
	case errors.Is(err, client.ErrTransport):
		return "E_TRANSPORT", ExitFailure
	case client.StatusOf(err) != 0:
		return "E_API", ExitFailure
	}
	return "E_INTERNAL", ExitFailure
}

// messageOf prefers the server's own message.
func messageOf(err error) string {
	return client.MessageOf(err, err.Error())
}
