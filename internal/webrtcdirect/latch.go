package webrtcdirect

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelClosed matches every ChannelClosedError.
var ErrChannelClosed = errors.New("data channel closed before opening")

// ChannelClosedError is returned by Dial when the data channel closes or
// errors before it opens. Err is the channel error, if any.
type ChannelClosedError struct {
	Err error
}

func (e *ChannelClosedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data channel failed before opening: %v", e.Err)
	}
	return ErrChannelClosed.Error()
}

func (e *ChannelClosedError) Unwrap() error { return e.Err }

func (e *ChannelClosedError) Is(target error) bool {
	return target == ErrChannelClosed
}

// openLatch is settled exactly once by the first of the channel's open,
// close or error events. Later events do not change the outcome.
type openLatch struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newOpenLatch() *openLatch {
	return &openLatch{done: make(chan struct{})}
}

func (l *openLatch) settle(err error) {
	l.once.Do(func() {
		l.err = err
		close(l.done)
	})
}

func (l *openLatch) wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return fmt.Errorf("waiting for data channel: %w", ctx.Err())
	}
}
