package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/carlosrabelo/swctl/domain/ports"
)

// scriptedChannel simulates a switch shell: every complete line written is
// looked up in replies and the reply is queued for reading.
type scriptedChannel struct {
	mu       sync.Mutex
	pending  []byte
	notify   chan struct{}
	replies  map[string]string
	fallback func(line string) string
	partial  string
	written  []string
	closes   int
	closed   bool
	writeErr error
}

func newScriptedChannel(banner string, replies map[string]string) *scriptedChannel {
	c := &scriptedChannel{
		notify:  make(chan struct{}, 1),
		replies: replies,
	}
	c.push(banner)
	return c
}

func (c *scriptedChannel) push(data string) {
	if data == "" {
		return
	}
	c.mu.Lock()
	c.pending = append(c.pending, data...)
	c.mu.Unlock()
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *scriptedChannel) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	c.mu.Lock()
	c.partial += string(p)
	var lines []string
	for {
		i := strings.IndexByte(c.partial, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, c.partial[:i])
		c.partial = c.partial[i+1:]
	}
	c.written = append(c.written, lines...)
	c.mu.Unlock()

	for _, line := range lines {
		reply, ok := c.replies[line]
		if !ok && c.fallback != nil {
			reply, ok = c.fallback(line), true
		}
		if ok {
			c.push(reply)
		}
	}
	return len(p), nil
}

func (c *scriptedChannel) take() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed && len(c.pending) == 0 {
		return nil
	}
	out := c.pending
	c.pending = nil
	return out
}

func (c *scriptedChannel) ReadAvailable(timeout time.Duration) ([]byte, error) {
	if out := c.take(); len(out) > 0 {
		return out, nil
	}
	if c.isClosed() {
		return nil, io.EOF
	}
	if timeout <= 0 {
		return nil, nil
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.notify:
	case <-timer.C:
	}
	return c.take(), nil
}

func (c *scriptedChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	c.closed = true
	return nil
}

func (c *scriptedChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *scriptedChannel) writtenLines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.written...)
}

func (c *scriptedChannel) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// fakeTransport hands out a prepared channel or fails.
type fakeTransport struct {
	channel *scriptedChannel
	err     error
	opened  int
	host    string
	user    string
	secret  string
}

func (t *fakeTransport) OpenShell(ctx context.Context, host, user, secret string) (ports.Channel, error) {
	t.opened++
	t.host, t.user, t.secret = host, user, secret
	if t.err != nil {
		return nil, t.err
	}
	if t.channel == nil {
		return nil, errors.New("no channel scripted")
	}
	return t.channel, nil
}

// fakeDialect mirrors the IOS conventions.
type fakeDialect struct{}

func (fakeDialect) Name() string          { return "fake" }
func (fakeDialect) PagerCommand() string  { return "terminal length 0" }
func (fakeDialect) ExitCommand() string   { return "exit" }
func (fakeDialect) EnableCommand() string { return "enable" }
func (fakeDialect) PromptSuffix() string  { return `[>#]` }
func (fakeDialect) IsCommandError(output string) bool {
	return strings.Contains(strings.ToLower(output), "invalid input")
}

type fakeResolver struct {
	name string
	err  error
}

func (r fakeResolver) ResolveHostname(target string) (string, error) {
	return r.name, r.err
}
