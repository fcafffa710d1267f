// Package stream turns the event-driven delivery of a data channel into a
// pull-based frame stream with backpressure-aware writes.
package stream

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrReadPending is returned when Next is called while another Next call is
// still waiting for a frame.
var ErrReadPending = errors.New("stream: a read is already pending")

type item struct {
	frame []byte
	eof   bool
}

// ReadQueue buffers frames pushed by the channel until a consumer pulls
// them. At any time it holds either buffered frames or at most one waiting
// consumer, never both. End-of-stream is terminal.
type ReadQueue struct {
	mu      sync.Mutex
	pending [][]byte
	waiter  chan item
	eof     bool
}

func NewReadQueue() *ReadQueue {
	return &ReadQueue{}
}

// Push delivers frame to a waiting consumer or buffers it. Frames pushed
// after end-of-stream are dropped.
func (q *ReadQueue) Push(frame []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.eof {
		return
	}
	if q.waiter != nil {
		q.waiter <- item{frame: frame}
		q.waiter = nil
		return
	}
	q.pending = append(q.pending, frame)
}

// InjectEOF marks the end of the stream. It is safe to call repeatedly.
func (q *ReadQueue) InjectEOF() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.eof {
		return
	}
	q.eof = true
	if q.waiter != nil {
		q.waiter <- item{eof: true}
		q.waiter = nil
	}
}

// Buffered is the number of frames waiting to be read.
func (q *ReadQueue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Next returns the next frame in arrival order, blocking until one is
// pushed. Once end-of-stream has been injected and the buffer is drained,
// every call returns io.EOF.
func (q *ReadQueue) Next(ctx context.Context) ([]byte, error) {
	q.mu.Lock()
	if len(q.pending) > 0 {
		frame := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()
		return frame, nil
	}
	if q.eof {
		q.mu.Unlock()
		return nil, io.EOF
	}
	if q.waiter != nil {
		q.mu.Unlock()
		return nil, ErrReadPending
	}
	wait := make(chan item, 1)
	q.waiter = wait
	q.mu.Unlock()

	select {
	case it := <-wait:
		return it.result()
	case <-ctx.Done():
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.waiter == wait {
		q.waiter = nil
		return nil, ctx.Err()
	}
	// A producer filled the slot while we were cancelling. Keep the frame
	// for the next reader instead of losing it.
	it := <-wait
	if !it.eof {
		q.pending = append([][]byte{it.frame}, q.pending...)
	}
	return nil, ctx.Err()
}

func (it item) result() ([]byte, error) {
	if it.eof {
		return nil, io.EOF
	}
	return it.frame, nil
}
