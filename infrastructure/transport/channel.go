package transport

import (
	"io"
	"sync"
	"time"
)

const (
	// BufferSize is the read size of the pump goroutine.
	BufferSize = 4096
	// maxCoalesce bounds how many queued chunks one ReadAvailable merges.
	maxCoalesce = 64
)

// streamChannel turns a blocking reader into a ports.Channel. A pump
// goroutine reads the remote stream and queues chunks, so ReadAvailable can
// wait with a timeout regardless of what the underlying stream supports.
type streamChannel struct {
	w      io.Writer
	closer func() error

	chunks chan []byte
	done   chan struct{}

	errMu   sync.Mutex
	readErr error

	closeOnce sync.Once
	closeErr  error
}

func newStreamChannel(r io.Reader, w io.Writer, closer func() error) *streamChannel {
	c := &streamChannel{
		w:      w,
		closer: closer,
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go c.pump(r)
	return c
}

func (c *streamChannel) pump(r io.Reader) {
	defer close(c.chunks)
	buffer := make([]byte, BufferSize)
	for {
		n, err := r.Read(buffer)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case c.chunks <- chunk:
			case <-c.done:
				return
			}
		}
		if err != nil {
			c.errMu.Lock()
			c.readErr = err
			c.errMu.Unlock()
			return
		}
	}
}

func (c *streamChannel) Write(p []byte) (int, error) {
	select {
	case <-c.done:
		return 0, io.ErrClosedPipe
	default:
	}
	return c.w.Write(p)
}

// ReadAvailable returns whatever arrived, waiting up to timeout for the
// first byte. It returns io.EOF (or the read error) once the remote side is
// gone and everything queued has been consumed.
func (c *streamChannel) ReadAvailable(timeout time.Duration) ([]byte, error) {
	select {
	case chunk, ok := <-c.chunks:
		if !ok {
			return nil, c.err()
		}
		return c.coalesce(chunk), nil
	default:
	}
	if timeout <= 0 {
		return nil, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case chunk, ok := <-c.chunks:
		if !ok {
			return nil, c.err()
		}
		return c.coalesce(chunk), nil
	case <-timer.C:
		return nil, nil
	case <-c.done:
		return nil, io.ErrClosedPipe
	}
}

func (c *streamChannel) coalesce(first []byte) []byte {
	out := first
	for i := 0; i < maxCoalesce; i++ {
		select {
		case chunk, ok := <-c.chunks:
			if !ok {
				return out
			}
			out = append(out, chunk...)
		default:
			return out
		}
	}
	return out
}

func (c *streamChannel) err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr == nil {
		return io.EOF
	}
	return c.readErr
}

// Close stops the pump and releases the stream. Only the first call does work.
func (c *streamChannel) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.closer != nil {
			c.closeErr = c.closer()
		}
	})
	return c.closeErr
}
