package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrNotSupported matches every NotSupportedError.
	ErrNotSupported = errors.New("not supported")
	// ErrNotOpen matches every StateError.
	ErrNotOpen = errors.New("data channel is not open")
	// ErrConnectionFailed reports a session whose connection failed.
	ErrConnectionFailed = errors.New("peer connection failed")
)

// NotSupportedError reports an address this transport cannot dial or an
// operation it never performs, such as listening.
type NotSupportedError struct {
	Op      string
	Address string
}

func (e *NotSupportedError) Error() string {
	if e.Op == "listen" {
		return fmt.Sprintf("listening is not supported by webrtc-direct: %s", e.Address)
	}
	return fmt.Sprintf("address not supported: %s", e.Address)
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// StateError is returned by operations that need an open data channel.
type StateError struct {
	State ChannelState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("webrtc data channel is %s", e.State)
}

func (e *StateError) Is(target error) bool {
	return target == ErrNotOpen
}
