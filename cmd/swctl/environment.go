package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"

	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/carlosrabelo/swctl/infrastructure/transport"
)

var errNoTerminal = errors.New("stdin is not a terminal")

// environment holds everything the command touches outside the process,
// so tests can replace it.
type environment struct {
	stdout       io.Writer
	stderr       io.Writer
	fs           afero.Fs
	newTransport transportFactory
	readPassword func(prompt string) (string, error)
	currentUser  func() string
	homeDir      func() string
}

func defaultEnvironment() *environment {
	return &environment{
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		fs:           afero.NewOsFs(),
		newTransport: transport.New,
		readPassword: terminalPassword,
		currentUser:  currentUsername,
		homeDir: func() string {
			home, _ := os.UserHomeDir()
			return home
		},
	}
}

// terminalPassword reads a secret from the controlling terminal without echo.
func terminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
