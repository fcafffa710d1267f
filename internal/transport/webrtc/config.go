package webrtc

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"

	"github.com/pion/webrtc/v3"
)

// GenerateCertificate creates the ECDSA P-256 certificate that every
// session of one factory presents during DTLS.
func GenerateCertificate() (*webrtc.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	cert, err := webrtc.GenerateCertificate(key)
	if err != nil {
		return nil, fmt.Errorf("failed to generate certificate: %w", err)
	}
	return cert, nil
}

// DefaultConfiguration dials directly: no ICE servers, host candidates only.
func DefaultConfiguration(cert webrtc.Certificate) webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers:         []webrtc.ICEServer{},
		ICETransportPolicy: webrtc.ICETransportPolicyAll,
		Certificates:       []webrtc.Certificate{cert},
	}
}

func DefaultDataChannelConfig() *webrtc.DataChannelInit {
	ordered := true
	return &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: nil,
	}
}
