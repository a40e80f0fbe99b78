package services

// Dialect describes the CLI conventions of a switch platform.
type Dialect interface {
	Name() string
	// PagerCommand disables paginated output; empty means nothing to send.
	PagerCommand() string
	// ExitCommand ends the CLI session gracefully; empty means just close.
	ExitCommand() string
	// EnableCommand enters privileged mode; empty means the platform has none.
	EnableCommand() string
	// PromptSuffix is a regex fragment matching the prompt terminator.
	PromptSuffix() string
	// IsCommandError reports whether output shows the switch rejected a command.
	IsCommandError(output string) bool
}

// HostnameResolver looks up the switch hostname used in its prompt.
type HostnameResolver interface {
	ResolveHostname(target string) (string, error)
}
