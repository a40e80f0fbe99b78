package ports

import (
	"context"
	"time"
)

// Transport opens an interactive shell on a switch
type Transport interface {
	OpenShell(ctx context.Context, host, user, secret string) (Channel, error)
}

// Channel is the byte stream of an open shell.
//
// ReadAvailable blocks for at most timeout and returns whatever bytes
// arrived, possibly none. A zero timeout polls without blocking. It
// returns io.EOF once the remote side has closed the stream.
type Channel interface {
	Write(p []byte) (int, error)
	ReadAvailable(timeout time.Duration) ([]byte, error)
	Close() error
}
