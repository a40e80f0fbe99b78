package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotConnected is returned when a command is issued outside the connected state.
var ErrNotConnected = errors.New("session is not connected")

// errPromptTimeout is the internal signal that the prompt did not show up in time.
var errPromptTimeout = errors.New("timeout waiting for prompt")

// ConnectionError covers unreachable hosts, rejected credentials, handshake
// problems and prompts that never appear while connecting.
type ConnectionError struct {
	Host string
	Op   string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Host, e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandTimeoutError reports a command whose prompt was not observed in time.
// The session stays usable after it.
type CommandTimeoutError struct {
	Host    string
	Command string
	Timeout time.Duration
	Partial string
}

func (e *CommandTimeoutError) Error() string {
	return fmt.Sprintf("%s: command %q: prompt not seen within %s", e.Host, e.Command, e.Timeout)
}

// Unwrap lets callers match timeouts with errors.Is(err, context.DeadlineExceeded).
func (e *CommandTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// OutputLimitError reports captured output cut at the configured byte limit.
type OutputLimitError struct {
	Host    string
	Command string
	Limit   int
}

func (e *OutputLimitError) Error() string {
	return fmt.Sprintf("%s: command %q: output truncated at %d bytes", e.Host, e.Command, e.Limit)
}

// InputError covers unreadable command files and invalid options.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cannot read command file %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid input: %v", e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// BatchError aggregates every failure of a batch run.
type BatchError struct {
	Failures []error
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d failures:", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  - ")
		b.WriteString(f.Error())
	}
	return b.String()
}

func (e *BatchError) Unwrap() []error { return e.Failures }
