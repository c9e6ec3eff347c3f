package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotStarted is returned when Send is called before Start.
var ErrNotStarted = errors.New("interpreter not started")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionClosed is returned when posting to a session that stopped running.
var ErrSessionClosed = errors.New("session closed")

// ErrUnknownInvoker is returned when an invocation names a source nobody serves.
var ErrUnknownInvoker = errors.New("unknown invocation source")

// ChartError reports a malformed chart definition.
type ChartError struct {
	NodeID string
	Reason string
}

func (e *ChartError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("chart: %s", e.Reason)
	}
	return fmt.Sprintf("chart: node %q: %s", e.NodeID, e.Reason)
}

// ChartErrors aggregates every problem found while building a chart.
type ChartErrors struct {
	Errors []*ChartError
}

func (e *ChartErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d chart errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the individual errors to errors.Is / errors.As.
func (e *ChartErrors) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		out[i] = err
	}
	return out
}

// ChartCycleError is raised when eventless transitions never settle.
// It indicates a broken chart, not a runtime condition.
type ChartCycleError struct {
	Limit int
	// Trail holds the sources of the last eventless transitions taken.
	Trail []string
}

func (e *ChartCycleError) Error() string {
	return fmt.Sprintf("chart cycle: eventless transitions did not settle after %d microsteps (last: %s)",
		e.Limit, strings.Join(e.Trail, " -> "))
}
