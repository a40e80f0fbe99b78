package transport

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/carlosrabelo/swctl/domain/ports"
)

// transcriptTransport records everything the switch sends to a file.
// Only received bytes are written, so credentials typed by the client never
// reach the transcript.
type transcriptTransport struct {
	next ports.Transport
	fs   afero.Fs
	path string
	log  logrus.FieldLogger
}

// WithTranscript wraps next so every opened channel is recorded at path.
func WithTranscript(next ports.Transport, fs afero.Fs, path string, log logrus.FieldLogger) ports.Transport {
	return &transcriptTransport{next: next, fs: fs, path: path, log: log}
}

func (t *transcriptTransport) OpenShell(ctx context.Context, host, user, secret string) (ports.Channel, error) {
	channel, err := t.next.OpenShell(ctx, host, user, secret)
	if err != nil {
		return nil, err
	}
	file, err := t.fs.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		t.log.Warnf("Transcript disabled, cannot open %s: %v", t.path, err)
		return channel, nil
	}
	fmt.Fprintf(file, "### %s session with %s as %s\n", time.Now().Format(time.RFC3339), host, user)
	t.log.Infof("Writing transcript to %s", t.path)
	return &transcriptChannel{Channel: channel, file: file}, nil
}

type transcriptChannel struct {
	ports.Channel
	mu     sync.Mutex
	file   afero.File
	closed bool
}

func (c *transcriptChannel) ReadAvailable(timeout time.Duration) ([]byte, error) {
	data, err := c.Channel.ReadAvailable(timeout)
	if len(data) > 0 {
		c.mu.Lock()
		if !c.closed {
			_, _ = c.file.Write(data)
		}
		c.mu.Unlock()
	}
	return data, err
}

func (c *transcriptChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	_ = c.file.Close()
	return c.Channel.Close()
}
