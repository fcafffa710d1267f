// Package webrtc implements the transport session contracts with pion.
package webrtc

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v3"
	"github.com/sirupsen/logrus"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/logger"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

// Options configures a SessionFactory.
type Options struct {
	Logger *logrus.Logger
	// Certificate is shared by every session. One is generated when nil.
	Certificate *webrtc.Certificate
}

// SessionFactory creates pion peer connections that share one certificate
// and one setting engine.
type SessionFactory struct {
	api    *webrtc.API
	config webrtc.Configuration
	log    *logrus.Logger
}

var _ transport.SessionFactory = (*SessionFactory)(nil)

func NewSessionFactory(opts Options) (*SessionFactory, error) {
	log := logger.OrDiscard(opts.Logger)

	cert := opts.Certificate
	if cert == nil {
		var err error
		if cert, err = GenerateCertificate(); err != nil {
			return nil, err
		}
	}

	se := webrtc.SettingEngine{
		LoggerFactory: &logger.PionFactory{Logger: log},
	}

	return &SessionFactory{
		api:    webrtc.NewAPI(webrtc.WithSettingEngine(se)),
		config: DefaultConfiguration(*cert),
		log:    log,
	}, nil
}

func (f *SessionFactory) NewSession() (transport.Session, error) {
	pc, err := f.api.NewPeerConnection(f.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	s := &session{pc: pc}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		f.log.WithField("state", state.String()).Debug("Peer connection state changed")
		if state == webrtc.PeerConnectionStateFailed {
			s.connectionFailed()
		}
	})
	return s, nil
}

type session struct {
	pc *webrtc.PeerConnection

	mu       sync.Mutex
	gathered <-chan struct{}
	onFailed func()
}

func (s *session) CreateDataChannel(label string) (transport.DataChannel, error) {
	dc, err := s.pc.CreateDataChannel(label, DefaultDataChannelConfig())
	if err != nil {
		return nil, err
	}
	return &dataChannel{dc: dc}, nil
}

func (s *session) CreateOffer() (string, error) {
	offer, err := s.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	return offer.SDP, nil
}

func (s *session) SetLocalDescription(sdp string) error {
	gathered := webrtc.GatheringCompletePromise(s.pc)

	desc := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}
	if err := s.pc.SetLocalDescription(desc); err != nil {
		return err
	}

	s.mu.Lock()
	s.gathered = gathered
	s.mu.Unlock()
	return nil
}

func (s *session) LocalDescription(ctx context.Context) (string, error) {
	s.mu.Lock()
	gathered := s.gathered
	s.mu.Unlock()

	if gathered == nil {
		return "", errors.New("local description not set")
	}

	select {
	case <-gathered:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	desc := s.pc.LocalDescription()
	if desc == nil {
		return "", errors.New("local description not set")
	}
	return desc.SDP, nil
}

func (s *session) SetRemoteDescription(sdp string) error {
	return s.pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdp})
}

func (s *session) OnConnectionFailed(f func()) {
	s.mu.Lock()
	s.onFailed = f
	s.mu.Unlock()
}

func (s *session) connectionFailed() {
	s.mu.Lock()
	f := s.onFailed
	s.mu.Unlock()
	if f != nil {
		f()
	}
}

func (s *session) Close() error {
	return s.pc.Close()
}
