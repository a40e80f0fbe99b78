package entities

import "strings"

// captureMarker selects which commands have their output surfaced.
// The match is a case-sensitive substring test: "SHOW RUN" is not captured.
const captureMarker = "show"

// Command is a single line of CLI text submitted to a session
type Command struct {
	Text string
}

// NewCommand trims the line terminator from raw and wraps it.
func NewCommand(raw string) Command {
	return Command{Text: strings.TrimRight(raw, "\r\n")}
}

// Captures reports whether the output of this command is returned to the caller.
func (c Command) Captures() bool {
	return strings.Contains(c.Text, captureMarker)
}

// IsBlank reports whether the command has no text besides whitespace.
func (c Command) IsBlank() bool {
	return strings.TrimSpace(c.Text) == ""
}

func (c Command) String() string {
	return c.Text
}
