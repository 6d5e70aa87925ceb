package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dairui1/vibetunnel/errors"
)

// ErrorHandler renders command errors. The code and message of coded errors
// are printed verbatim so scripts can match on them; a hint follows for the
// common cases.
type ErrorHandler struct {
	Verbose bool
	JSON    bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr.
func NewErrorHandler(verbose, jsonOutput bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		JSON:    jsonOutput,
		Out:     os.Stderr,
	}
}

// Handle prints err and returns it unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	vtErr, coded := errors.As(err)

	if h.JSON {
		if !coded {
			vtErr = errors.Wrap(err, errors.ErrCodeInternal, err.Error())
		}
		fmt.Fprintln(h.Out, vtErr.ToJSON())
		return err
	}

	red := lipgloss.NewStyle().Bold(true).Foreground(palette.Red)
	fmt.Fprintf(h.Out, "%s %s\n", red.Render("Error:"), err.Error())

	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(h.Out, mutedStyle.Render(hint))
	}

	if h.Verbose && coded {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", vtErr.ToJSON())
	}
	return err
}

func hintFor(err error) string {
	switch errors.GetCode(err) {
	case errors.ErrCodeSessionNotFound:
		return "Run 'vt list' to see known sessions."
	case errors.ErrCodeInvalidSessionID:
		return "Session ids may only contain letters, digits, '-' and '_'."
	case errors.ErrCodeStdinWriteFailed:
		return "Is the session's host still running? Check with 'vt show <id>'."
	case errors.ErrCodeConfigInvalid:
		return "Run 'vt schema config' to see the accepted configuration."
	case errors.ErrCodeDaemonNotRunning:
		return "Start it with 'vt daemon start'."
	case errors.ErrCodeDaemonAlreadyRunning:
		return "Stop it first with 'vt daemon stop'."
	}
	return ""
}
