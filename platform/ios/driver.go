package ios

import (
	"strings"

	"github.com/carlosrabelo/swctl/domain/entities"
)

const driverName = "ios"

var commandErrHints = []string{
	"invalid input",
	"unknown command",
	"incomplete command",
	"ambiguous command",
	"unrecognized command",
	"invalid command",
	"syntax error",
	"cannot find command",
}

// Driver implements the SwitchDriver behaviour for Cisco IOS switches.
type Driver struct{}

// New creates a new IOS driver instance.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

// PagerCommand disables the --More-- pager for the session.
func (d *Driver) PagerCommand() string {
	return "terminal length 0"
}

// ExitCommand logs out of the exec shell.
func (d *Driver) ExitCommand() string {
	return "exit"
}

// EnableCommand enters privileged exec mode.
func (d *Driver) EnableCommand() string {
	return "enable"
}

// PromptSuffix matches user (>) and privileged (#) prompts.
func (d *Driver) PromptSuffix() string {
	return `[>#]`
}

// IsCommandError reports whether output carries an IOS parser complaint.
func (d *Driver) IsCommandError(output string) bool {
	lower := strings.ToLower(output)
	for _, keyword := range commandErrHints {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// LoginSequence returns the telnet login prompts of an IOS line with
// local or AAA authentication.
func (d *Driver) LoginSequence(username, password string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "Username:", SendCmd: username},
		{WaitFor: "Password:", SendCmd: password, Secret: true},
	}
}
