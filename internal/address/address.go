// Package address parses webrtc-direct dial targets of the form
// /<scheme>/<host>/tcp/<port>/http/p2p-webrtc-direct/p2p/<peer-id>.
package address

import (
	"net"
	"regexp"
	"strconv"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/transport"
)

var pattern = regexp.MustCompile(`^/(ip4|ip6|dns4|dns6|dns)/(.*?)/tcp/([0-9]+)/http/p2p-webrtc-direct/p2p/([a-zA-Z0-9]+)$`)

// Address is a parsed dial target. The zero value is not a valid address;
// use Parse.
type Address struct {
	scheme string
	host   string
	port   uint16
	peerID string
	raw    string
}

// Parse validates s against the webrtc-direct address shape. Any other shape
// fails with a *transport.NotSupportedError carrying s.
func Parse(s string) (Address, error) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Address{}, &transport.NotSupportedError{Op: "dial", Address: s}
	}

	port, err := strconv.ParseUint(m[3], 10, 16)
	if err != nil {
		return Address{}, &transport.NotSupportedError{Op: "dial", Address: s}
	}

	return Address{
		scheme: m[1],
		host:   m[2],
		port:   uint16(port),
		peerID: m[4],
		raw:    s,
	}, nil
}

func (a Address) Scheme() string { return a.scheme }
func (a Address) Host() string   { return a.host }
func (a Address) Port() uint16   { return a.port }

// PeerID is the identity the remote side must prove during the handshake.
func (a Address) PeerID() string { return a.peerID }

// HostPort joins host and port, bracketing IPv6 literals.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.host, strconv.Itoa(int(a.port)))
}

func (a Address) String() string { return a.raw }
