package webrtcdirect

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/handshake"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/identity"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/signal"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/signaling/signalingtest"
	pionsession "github.com/rudransh-shrivastava/webrtc-direct/internal/transport/webrtc"
)

// echoListener answers offers with a pion peer connection that echoes every
// message it receives.
type echoListener struct {
	id     *identity.Key
	peers  []*webrtc.PeerConnection
	server *signalingtest.Server
}

func newEchoListener(t *testing.T) *echoListener {
	t.Helper()

	id, err := identity.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	l := &echoListener{id: id}
	l.server = signalingtest.NewServer(l.answer)
	t.Cleanup(func() {
		l.server.Close()
		for _, pc := range l.peers {
			_ = pc.Close()
		}
	})
	return l
}

func (l *echoListener) answer(envelope string) (string, int) {
	offer, err := signal.DecodeEnvelope(envelope)
	if err != nil {
		return err.Error(), http.StatusBadRequest
	}

	dialer, err := l.id.PeerIDFromPublicKey(mustDecode(offer.IdentityPubKey))
	if err != nil {
		return err.Error(), http.StatusBadRequest
	}
	if err := handshake.Verify(l.id, offer, dialer); err != nil {
		return err.Error(), http.StatusForbidden
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return err.Error(), http.StatusInternalServerError
	}
	l.peers = append(l.peers, pc)

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			_ = dc.Send(msg.Data)
		})
	})

	remote := webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: offer.SessionDescription}
	if err := pc.SetRemoteDescription(remote); err != nil {
		return err.Error(), http.StatusBadRequest
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return err.Error(), http.StatusInternalServerError
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return err.Error(), http.StatusInternalServerError
	}
	<-gathered

	draft, err := handshake.NewDraft(l.id, signal.KindAnswer, pc.LocalDescription().SDP, dialer)
	if err != nil {
		return err.Error(), http.StatusInternalServerError
	}
	signed, err := handshake.Sign(l.id, draft)
	if err != nil {
		return err.Error(), http.StatusInternalServerError
	}
	body, err := signal.EncodeEnvelope(signed)
	if err != nil {
		return err.Error(), http.StatusInternalServerError
	}
	return body, http.StatusOK
}

func mustDecode(text string) []byte {
	data, err := signal.DecodeBytes(text)
	if err != nil {
		return nil
	}
	return data
}

func TestDialPionEcho(t *testing.T) {
	if testing.Short() || os.Getenv("WEBRTC_DIRECT_E2E") == "" {
		t.Skip("set WEBRTC_DIRECT_E2E=1 to dial a real pion listener")
	}

	listener := newEchoListener(t)

	local, err := identity.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	sessions, err := pionsession.NewSessionFactory(pionsession.Options{})
	if err != nil {
		t.Fatalf("NewSessionFactory failed: %v", err)
	}
	tr, err := New(Options{Identity: local, Sessions: sessions})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	host, port, _ := net.SplitHostPort(listener.server.HostPort())
	addr := fmt.Sprintf("/ip4/%s/tcp/%s/http/p2p-webrtc-direct/p2p/%s", host, port, listener.id.PeerID())

	conn, err := tr.Dial(ctx, addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Shutdown()

	if err := conn.Write(ctx, []byte("ping")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	frame, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(frame) != "ping" {
		t.Errorf("expected echoed ping, got %s", frame)
	}
}
