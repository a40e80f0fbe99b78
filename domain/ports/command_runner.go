package ports

import "context"

// CommandRunner defines the port for driving one switch session
type CommandRunner interface {
	Connect(ctx context.Context) error
	Run(ctx context.Context, command string) (string, error)
	Close() error
	Target() string
}
