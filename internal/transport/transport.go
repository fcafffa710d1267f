package transport

import "context"

// ChannelState mirrors the ready state of a data channel.
type ChannelState int

const (
	ChannelConnecting ChannelState = iota
	ChannelOpen
	ChannelClosing
	ChannelClosed
)

func (s ChannelState) String() string {
	switch s {
	case ChannelConnecting:
		return "connecting"
	case ChannelOpen:
		return "open"
	case ChannelClosing:
		return "closing"
	case ChannelClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DataChannel is the ordered, reliable sub-stream negotiated over a Session.
// Handlers must be registered before the channel can open; implementations
// invoke them from their own goroutines.
type DataChannel interface {
	Label() string
	Send(data []byte) error
	Close() error
	BufferedAmount() uint64
	ReadyState() ChannelState

	OnOpen(f func())
	OnClose(f func())
	OnError(f func(err error))
	OnMessage(f func(data []byte))
}

// Session is one native real-time session used for a single dial attempt.
type Session interface {
	// CreateDataChannel creates an ordered, reliable data channel.
	CreateDataChannel(label string) (DataChannel, error)
	CreateOffer() (string, error)
	SetLocalDescription(sdp string) error
	// LocalDescription blocks until candidate gathering has finished and
	// returns the description that must be sent to the remote side.
	LocalDescription(ctx context.Context) (string, error)
	SetRemoteDescription(sdp string) error
	// OnConnectionFailed registers f to run when the underlying connection
	// fails, for example when ICE finds no working candidate pair.
	OnConnectionFailed(f func())
	Close() error
}

// SessionFactory creates sessions that share one configuration.
type SessionFactory interface {
	NewSession() (Session, error)
}
