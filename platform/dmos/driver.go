package dmos

import (
	"strings"

	"github.com/carlosrabelo/swctl/domain/entities"
)

const driverName = "dmos"

// cmdErrorPrefixes start the lines DmOS prints when it rejects a command.
// Matching the start of a line keeps counters such as "invalid frames" out.
var cmdErrorPrefixes = []string{"syntax error", "error:", "% invalid", "% unknown", "% incomplete", "unknown command", "incomplete command"}

// Driver implements SwitchDriver semantics for Datacom DmOS switches.
type Driver struct{}

// New creates a new DmOS driver.
func New() *Driver {
	return &Driver{}
}

// Name returns the canonical platform identifier.
func (d *Driver) Name() string {
	return driverName
}

func (d *Driver) PagerCommand() string {
	return "paginate false"
}

func (d *Driver) ExitCommand() string {
	return "exit"
}

// EnableCommand is empty: DmOS users land directly in their privilege level.
func (d *Driver) EnableCommand() string {
	return ""
}

func (d *Driver) PromptSuffix() string {
	return `#`
}

func (d *Driver) IsCommandError(output string) bool {
	for _, line := range strings.Split(output, "\n") {
		line = strings.ToLower(strings.TrimSpace(line))
		for _, prefix := range cmdErrorPrefixes {
			if strings.HasPrefix(line, prefix) {
				return true
			}
		}
	}
	return false
}

// LoginSequence returns the telnet login prompts of a DmOS switch.
func (d *Driver) LoginSequence(username, password string) []entities.AuthPrompt {
	return []entities.AuthPrompt{
		{WaitFor: "login:", SendCmd: username},
		{WaitFor: "Password:", SendCmd: password, Secret: true},
	}
}
