package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

const (
	// BufferedAmountThreshold is the number of unsent bytes the channel may
	// hold before Write stops returning.
	BufferedAmountThreshold = 8 * 1024
	// DrainPollInterval is how often Write re-checks the buffered amount.
	DrainPollInterval = 100 * time.Millisecond
	// MaxStreamFrameSize is the largest frame the byte-stream view sends.
	MaxStreamFrameSize = 16 * 1024
)

// Conn is an open data channel exposed as a frame stream. It owns its read
// queue; nothing else may push into it once the Conn exists.
type Conn struct {
	channel      transport.DataChannel
	queue        *ReadQueue
	remotePubKey []byte
	shutdown     func() error
}

// NewConn wraps an open channel. shutdown tears down the channel and its
// session; it may be nil, in which case Shutdown only closes the channel.
func NewConn(channel transport.DataChannel, queue *ReadQueue, remotePubKey []byte, shutdown func() error) *Conn {
	if shutdown == nil {
		shutdown = channel.Close
	}
	return &Conn{
		channel:      channel,
		queue:        queue,
		remotePubKey: remotePubKey,
		shutdown:     shutdown,
	}
}

// Read returns the next frame. Frames buffered before the channel left the
// open state are still delivered; after that Read returns io.EOF.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	if c.channel.ReadyState() != transport.ChannelOpen && c.queue.Buffered() == 0 {
		return nil, io.EOF
	}
	return c.queue.Next(ctx)
}

// Write sends a copy of frame and blocks until the channel's buffered
// amount drops below BufferedAmountThreshold. It fails with a
// *transport.StateError without sending if the channel is not open, and
// with a *transport.StateError if the channel stops being open while
// waiting to drain.
func (c *Conn) Write(ctx context.Context, frame []byte) error {
	if state := c.channel.ReadyState(); state != transport.ChannelOpen {
		return &transport.StateError{State: state}
	}

	if err := c.channel.Send(bytes.Clone(frame)); err != nil {
		if state := c.channel.ReadyState(); state != transport.ChannelOpen {
			return &transport.StateError{State: state}
		}
		return fmt.Errorf("failed to send frame: %w", err)
	}

	return c.waitDrained(ctx)
}

func (c *Conn) waitDrained(ctx context.Context) error {
	var ticker *time.Ticker
	for {
		if state := c.channel.ReadyState(); state != transport.ChannelOpen {
			return &transport.StateError{State: state}
		}
		if c.channel.BufferedAmount() < BufferedAmountThreshold {
			return nil
		}

		if ticker == nil {
			ticker = time.NewTicker(DrainPollInterval)
			defer ticker.Stop()
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RemotePublicKey is the protobuf-encoded public key of the verified peer.
func (c *Conn) RemotePublicKey() []byte {
	return bytes.Clone(c.remotePubKey)
}

// Shutdown closes the data channel and the session behind it.
func (c *Conn) Shutdown() error {
	return c.shutdown()
}

// Close does nothing. It exists so Conn matches transports whose close
// and shutdown differ; use Shutdown to tear the connection down.
func (c *Conn) Close() error {
	return nil
}

// ReadWriteCloser exposes the frame stream as a byte stream. Each Write is
// split into frames of at most MaxStreamFrameSize; Read drains frames, keeping any remainder for the next
// call. Closing it shuts the connection down.
func (c *Conn) ReadWriteCloser(ctx context.Context) io.ReadWriteCloser {
	return &byteStream{ctx: ctx, conn: c}
}

type byteStream struct {
	ctx  context.Context
	conn *Conn
	rest []byte
}

func (s *byteStream) Read(p []byte) (int, error) {
	for len(s.rest) == 0 {
		frame, err := s.conn.Read(s.ctx)
		if err != nil {
			return 0, err
		}
		s.rest = frame
	}
	n := copy(p, s.rest)
	s.rest = s.rest[n:]
	return n, nil
}

func (s *byteStream) Write(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		end := min(n+MaxStreamFrameSize, len(p))
		if err := s.conn.Write(s.ctx, p[n:end]); err != nil {
			return n, err
		}
		n = end
	}
	return n, nil
}

func (s *byteStream) Close() error {
	return s.conn.Shutdown()
}
