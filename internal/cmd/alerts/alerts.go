// Package alerts prints status notices that accompany command output,
// such as the warnings attached to a reconciliation result.
package alerts

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Alert is a single status notice.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// New creates an alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// NewError creates an error alert.
func NewError(message string) *Alert {
	return New(LevelError, message)
}

// NewWarning creates a warning alert.
func NewWarning(message string) *Alert {
	return New(LevelWarning, message)
}

// NewSuccess creates a success alert.
func NewSuccess(message string) *Alert {
	return New(LevelSuccess, message)
}

// WithError adds an underlying error to the alert.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds indented detail lines to the alert.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns the alert's headline.
func (a *Alert) String() string {
	message := fmt.Sprintf("%s %s", a.Level.Icon(), a.Message)
	if a.Err != nil {
		message += fmt.Sprintf(": %v", a.Err)
	}
	return message
}

// Writer writes alerts somewhere.
type Writer interface {
	WriteAlert(alert *Alert) error
}

// WriterFunc is an adapter to allow functions to be used as Writers.
type WriterFunc func(*Alert) error

// WriteAlert calls the function.
func (f WriterFunc) WriteAlert(alert *Alert) error {
	return f(alert)
}

// DiscardWriter is a Writer that discards all alerts.
var DiscardWriter Writer = WriterFunc(func(*Alert) error { return nil })

// NewWriterTo creates a Writer that prints alerts to w, colored when w is
// a terminal and color is allowed.
func NewWriterTo(w io.Writer, noColor bool) Writer {
	color := !noColor && isTerminal(w)
	return WriterFunc(func(alert *Alert) error {
		line := alert.String()
		if color {
			line = alert.Level.Color() + line + ResetColor()
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		for _, detail := range alert.Details {
			if _, err := fmt.Fprintf(w, "   %s\n", detail); err != nil {
				return err
			}
		}
		return nil
	})
}

// Warnings writes one warning alert per message.
func Warnings(w Writer, messages []string) error {
	for _, m := range messages {
		if err := w.WriteAlert(NewWarning(m)); err != nil {
			return err
		}
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
