package platform

import (
	"fmt"
	"strings"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/services"
	"github.com/carlosrabelo/swctl/platform/dmos"
	"github.com/carlosrabelo/swctl/platform/ios"
)

// SwitchDriver defines the CLI conventions required to support a switching platform.
type SwitchDriver interface {
	services.Dialect

	// LoginSequence returns the prompts answered on transports without
	// their own authentication, such as telnet.
	LoginSequence(username, password string) []entities.AuthPrompt
}

var registry = []SwitchDriver{
	ios.New(),
	dmos.New(),
}

// Get returns a driver by normalized platform name.
func Get(name string) (SwitchDriver, error) {
	normalized := normalizeName(name)
	for _, driver := range registry {
		if driver.Name() == normalized {
			return driver, nil
		}
	}
	return nil, fmt.Errorf("unknown switch platform: %s", name)
}

// Names lists the registered platform identifiers, for flag help and
// validation messages.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, driver := range registry {
		names = append(names, driver.Name())
	}
	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
