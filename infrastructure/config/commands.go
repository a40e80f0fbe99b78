package config

import (
	"strings"

	"github.com/spf13/afero"

	"github.com/carlosrabelo/swctl/domain/services"
)

// ReadCommandFile returns the non-empty lines of path in file order, with
// line terminators removed. A missing or unreadable file is an *InputError.
func ReadCommandFile(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &services.InputError{Path: path, Err: err}
	}

	var commands []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		commands = append(commands, line)
	}
	return commands, nil
}
