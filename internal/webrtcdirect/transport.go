// Package webrtcdirect dials webrtc-direct peers: it signs an offer, sends
// it over one HTTP GET, verifies the signed answer and returns the opened
// data channel as a stream.
package webrtcdirect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/address"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/handshake"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/identity"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/logger"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/signal"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/signaling"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/stream"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

const (
	DefaultDialTimeout  = 30 * time.Second
	DefaultChannelLabel = "data"
)

type Options struct {
	Identity identity.Provider
	Sessions transport.SessionFactory

	// Signaling defaults to an HTTP client.
	Signaling signaling.Exchanger

	Logger       *logrus.Logger
	DialTimeout  time.Duration
	Verification VerifyPolicy
	ChannelLabel string

	// OnStateChange, if set, observes every state a dial passes through.
	OnStateChange func(addr string, state State)
}

// Transport dials webrtc-direct addresses. It never listens. The identity
// and session factory are shared read-only by concurrent dials; each dial
// owns its session, channel and read queue.
type Transport struct {
	identity      identity.Provider
	sessions      transport.SessionFactory
	signaling     signaling.Exchanger
	log           *logrus.Logger
	dialTimeout   time.Duration
	verification  VerifyPolicy
	channelLabel  string
	onStateChange func(string, State)
}

func New(opts Options) (*Transport, error) {
	if opts.Identity == nil {
		return nil, errors.New("identity is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("session factory is required")
	}

	t := &Transport{
		identity:      opts.Identity,
		sessions:      opts.Sessions,
		signaling:     opts.Signaling,
		log:           logger.OrDiscard(opts.Logger),
		dialTimeout:   opts.DialTimeout,
		verification:  opts.Verification,
		channelLabel:  opts.ChannelLabel,
		onStateChange: opts.OnStateChange,
	}
	if t.signaling == nil {
		t.signaling = signaling.NewClient()
	}
	if t.dialTimeout <= 0 {
		t.dialTimeout = DefaultDialTimeout
	}
	if t.channelLabel == "" {
		t.channelLabel = DefaultChannelLabel
	}
	return t, nil
}

// Listen always fails: webrtc-direct only dials.
func (t *Transport) Listen(addr string) error {
	return Listen(addr)
}

// Listen rejects addr with a *transport.NotSupportedError. It needs no
// identity or session factory.
func Listen(addr string) error {
	return &transport.NotSupportedError{Op: "listen", Address: addr}
}

// Dial runs the whole handshake against addr and returns the open stream.
// Any failure, including ctx ending or the dial timeout, tears the session
// down before returning.
func (t *Transport) Dial(ctx context.Context, addr string) (*stream.Conn, error) {
	d := &dial{
		t:   t,
		raw: addr,
		log: t.log.WithField("addr", addr),
	}

	d.enter(StateIdle)
	conn, err := d.run(ctx)
	if err != nil {
		d.enter(StateFailed)
		if terr := d.teardown(); terr != nil {
			d.log.Debugf("Failed to tear down dial: %v", terr)
		}
		return nil, err
	}

	d.enter(StateOpen)
	return conn, nil
}

type dial struct {
	t   *Transport
	raw string
	log *logrus.Entry

	session transport.Session
	channel transport.DataChannel
	queue   *stream.ReadQueue
	latch   *openLatch
}

func (d *dial) enter(state State) {
	d.log.WithField("state", state.String()).Debug("Dial state changed")
	if d.t.onStateChange != nil {
		d.t.onStateChange(d.raw, state)
	}
}

func (d *dial) run(ctx context.Context) (*stream.Conn, error) {
	t := d.t

	d.enter(StateParsing)
	addr, err := address.Parse(d.raw)
	if err != nil {
		return nil, err
	}
	d.log = d.log.WithField("peer", addr.PeerID())

	ctx, cancel := context.WithTimeout(ctx, t.dialTimeout)
	defer cancel()

	if err := d.openSession(); err != nil {
		return nil, err
	}
	d.enter(StateSessionCreated)

	offer, err := d.session.CreateOffer()
	if err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	if err := d.session.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("failed to set local description: %w", err)
	}
	sdp, err := d.session.LocalDescription(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to gather local description: %w", err)
	}
	d.enter(StateOfferCreated)

	draft, err := handshake.NewDraft(t.identity, signal.KindOffer, sdp, addr.PeerID())
	if err != nil {
		return nil, err
	}
	signed, err := handshake.Sign(t.identity, draft)
	if err != nil {
		return nil, err
	}
	d.enter(StateOfferSigned)

	envelope, err := signal.EncodeEnvelope(signed)
	if err != nil {
		return nil, err
	}
	body, err := t.signaling.Exchange(ctx, addr.HostPort(), envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to send offer: %w", err)
	}
	d.enter(StateOfferSent)

	answer, err := signal.DecodeEnvelope(body)
	if err != nil {
		return nil, err
	}
	if answer.Kind != signal.KindAnswer {
		return nil, &signal.MalformedSignalError{Reason: fmt.Sprintf("expected answer, got %s", answer.Kind)}
	}
	d.enter(StateAnswerReceived)

	if err := handshake.Verify(t.identity, answer, addr.PeerID()); err != nil {
		if t.verification != VerifyLenient {
			return nil, err
		}
		d.log.Warnf("Continuing with unverified answer: %v", err)
	}
	d.enter(StateAnswerVerified)

	remotePubKey, err := signal.DecodeBytes(answer.IdentityPubKey)
	if err != nil {
		return nil, &signal.MalformedSignalError{Reason: "identity public key", Err: err}
	}

	if err := d.session.SetRemoteDescription(answer.SessionDescription); err != nil {
		return nil, fmt.Errorf("failed to set remote description: %w", err)
	}
	d.enter(StateRemoteDescriptionApplied)

	if err := d.latch.wait(ctx); err != nil {
		return nil, err
	}
	return stream.NewConn(d.channel, d.queue, remotePubKey, d.teardown), nil
}

// openSession creates the session and channel and binds their events:
// open settles the latch, a channel close or error or a failed connection
// settles it with a failure and ends the read queue, messages feed the
// read queue.
func (d *dial) openSession() error {
	session, err := d.t.sessions.NewSession()
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	d.session = session

	channel, err := session.CreateDataChannel(d.t.channelLabel)
	if err != nil {
		return fmt.Errorf("failed to create data channel: %w", err)
	}
	d.channel = channel
	d.queue = stream.NewReadQueue()
	d.latch = newOpenLatch()

	queue, latch, log := d.queue, d.latch, d.log
	channel.OnOpen(func() {
		log.Debug("Data channel open")
		latch.settle(nil)
	})
	channel.OnClose(func() {
		log.Debug("Data channel closed")
		latch.settle(&ChannelClosedError{})
		queue.InjectEOF()
	})
	channel.OnError(func(err error) {
		log.Debugf("Data channel error: %v", err)
		latch.settle(&ChannelClosedError{Err: err})
		queue.InjectEOF()
	})
	channel.OnMessage(queue.Push)
	session.OnConnectionFailed(func() {
		log.Debug("Peer connection failed")
		latch.settle(&ChannelClosedError{Err: transport.ErrConnectionFailed})
		queue.InjectEOF()
	})
	return nil
}

// teardown closes the channel and the session and ends the read queue.
func (d *dial) teardown() error {
	var result *multierror.Error

	if d.channel != nil {
		if err := d.channel.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close data channel: %w", err))
		}
	}
	if d.session != nil {
		if err := d.session.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close session: %w", err))
		}
	}
	if d.queue != nil {
		d.queue.InjectEOF()
	}
	return result.ErrorOrNil()
}
