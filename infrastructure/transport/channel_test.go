package transport

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCloser struct {
	calls int
}

func (c *countingCloser) Close() error {
	c.calls++
	return nil
}

func TestStreamChannel_ReadAvailable(t *testing.T) {
	pr, pw := io.Pipe()
	closer := &countingCloser{}
	ch := newStreamChannel(pr, io.Discard, closer.Close)
	defer ch.Close()

	data, err := ch.ReadAvailable(0)
	require.NoError(t, err)
	assert.Empty(t, data)

	start := time.Now()
	data, err = ch.ReadAvailable(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	go func() { _, _ = pw.Write([]byte("sw1#")) }()
	data, err = ch.ReadAvailable(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "sw1#", string(data))
}

func TestStreamChannel_EOFAfterRemoteClose(t *testing.T) {
	pr, pw := io.Pipe()
	ch := newStreamChannel(pr, io.Discard, nil)
	defer ch.Close()

	go func() {
		_, _ = pw.Write([]byte("bye"))
		_ = pw.Close()
	}()

	var got []byte
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		data, err := ch.ReadAvailable(100 * time.Millisecond)
		got = append(got, data...)
		if err != nil {
			assert.ErrorIs(t, err, io.EOF)
			break
		}
	}
	assert.Equal(t, "bye", string(got))
}

func TestStreamChannel_ReadError(t *testing.T) {
	pr, pw := io.Pipe()
	ch := newStreamChannel(pr, io.Discard, nil)
	defer ch.Close()

	boom := errors.New("connection reset")
	_ = pw.CloseWithError(boom)

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		_, err = ch.ReadAvailable(100 * time.Millisecond)
	}
	assert.ErrorIs(t, err, boom)
}

func TestStreamChannel_CloseOnce(t *testing.T) {
	pr, _ := io.Pipe()
	closer := &countingCloser{}
	ch := newStreamChannel(pr, io.Discard, func() error {
		_ = pr.Close()
		return closer.Close()
	})

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Equal(t, 1, closer.calls)

	_, err := ch.Write([]byte("show version\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}
