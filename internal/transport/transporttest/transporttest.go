// Package transporttest provides scriptable in-memory sessions and data
// channels for tests.
package transporttest

import (
	"context"
	"errors"
	"sync"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

// Channel is a transport.DataChannel whose state and events are driven by
// the test.
type Channel struct {
	label string

	mu       sync.Mutex
	state    transport.ChannelState
	buffered uint64
	sent     [][]byte
	sendErr  error
	onSend   func()
	closed   bool

	onOpen    func()
	onClose   func()
	onError   func(error)
	onMessage func([]byte)
}

var _ transport.DataChannel = (*Channel)(nil)

func NewChannel(label string) *Channel {
	return &Channel{label: label, state: transport.ChannelConnecting}
}

func (c *Channel) Label() string { return c.label }

func (c *Channel) Send(data []byte) error {
	c.mu.Lock()
	hook := c.onSend
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, data)
	return nil
}

// Close marks the channel closed and fires the close handler.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.FireClose()
	return nil
}

func (c *Channel) BufferedAmount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffered
}

func (c *Channel) ReadyState() transport.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) OnOpen(f func()) {
	c.mu.Lock()
	c.onOpen = f
	c.mu.Unlock()
}

func (c *Channel) OnClose(f func()) {
	c.mu.Lock()
	c.onClose = f
	c.mu.Unlock()
}

func (c *Channel) OnError(f func(err error)) {
	c.mu.Lock()
	c.onError = f
	c.mu.Unlock()
}

func (c *Channel) OnMessage(f func(data []byte)) {
	c.mu.Lock()
	c.onMessage = f
	c.mu.Unlock()
}

// SetState changes the ready state without firing any handler.
func (c *Channel) SetState(state transport.ChannelState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *Channel) SetBufferedAmount(n uint64) {
	c.mu.Lock()
	c.buffered = n
	c.mu.Unlock()
}

func (c *Channel) SetSendError(err error) {
	c.mu.Lock()
	c.sendErr = err
	c.mu.Unlock()
}

// Sent returns the frames passed to Send so far.
func (c *Channel) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *Channel) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// OnSend registers a hook that runs at the start of every Send.
func (c *Channel) OnSend(f func()) {
	c.mu.Lock()
	c.onSend = f
	c.mu.Unlock()
}

// FireOpen moves the channel to open and calls the open handler.
func (c *Channel) FireOpen() {
	c.mu.Lock()
	c.state = transport.ChannelOpen
	f := c.onOpen
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

// FireClose moves the channel to closed and calls the close handler.
func (c *Channel) FireClose() {
	c.mu.Lock()
	c.state = transport.ChannelClosed
	f := c.onClose
	c.mu.Unlock()
	if f != nil {
		f()
	}
}

// FireError moves the channel to closed and calls the error handler.
func (c *Channel) FireError(err error) {
	c.mu.Lock()
	c.state = transport.ChannelClosed
	f := c.onError
	c.mu.Unlock()
	if f != nil {
		f(err)
	}
}

// Deliver calls the message handler with data.
func (c *Channel) Deliver(data []byte) {
	c.mu.Lock()
	f := c.onMessage
	c.mu.Unlock()
	if f != nil {
		f(data)
	}
}

// Session is a transport.Session recording the calls made on it. Behaviour
// is configured through its exported fields before use.
type Session struct {
	OfferSDP       string
	CreateOfferErr error
	SetLocalErr    error
	SetRemoteErr   error
	ChannelErr     error
	// AfterRemote runs once SetRemoteDescription has succeeded, typically
	// to fire channel events.
	AfterRemote func(ch *Channel)

	mu        sync.Mutex
	channel   *Channel
	localSDP  string
	remoteSDP string
	closed    bool
	onFailed  func()
}

var _ transport.Session = (*Session)(nil)

func (s *Session) CreateDataChannel(label string) (transport.DataChannel, error) {
	if s.ChannelErr != nil {
		return nil, s.ChannelErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channel = NewChannel(label)
	return s.channel, nil
}

func (s *Session) CreateOffer() (string, error) {
	if s.CreateOfferErr != nil {
		return "", s.CreateOfferErr
	}
	if s.OfferSDP == "" {
		return "v=0\r\ns=transporttest\r\n", nil
	}
	return s.OfferSDP, nil
}

func (s *Session) SetLocalDescription(sdp string) error {
	if s.SetLocalErr != nil {
		return s.SetLocalErr
	}
	s.mu.Lock()
	s.localSDP = sdp
	s.mu.Unlock()
	return nil
}

func (s *Session) LocalDescription(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.localSDP == "" {
		return "", errors.New("local description not set")
	}
	return s.localSDP, nil
}

func (s *Session) SetRemoteDescription(sdp string) error {
	if s.SetRemoteErr != nil {
		return s.SetRemoteErr
	}
	s.mu.Lock()
	s.remoteSDP = sdp
	ch := s.channel
	s.mu.Unlock()

	if s.AfterRemote != nil && ch != nil {
		s.AfterRemote(ch)
	}
	return nil
}

func (s *Session) OnConnectionFailed(f func()) {
	s.mu.Lock()
	s.onFailed = f
	s.mu.Unlock()
}

// FailConnection calls the connection-failed handler.
func (s *Session) FailConnection() {
	s.mu.Lock()
	f := s.onFailed
	s.mu.Unlock()
	if f != nil {
		f()
	}
}

func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Session) Channel() *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *Session) RemoteDescription() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remoteSDP
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Factory hands out a fixed session on every call.
type Factory struct {
	Session *Session
	Err     error

	mu    sync.Mutex
	calls int
}

var _ transport.SessionFactory = (*Factory)(nil)

func (f *Factory) NewSession() (transport.Session, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Session, nil
}

func (f *Factory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
