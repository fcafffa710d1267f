package signaling

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/signaling/signalingtest"
)

func TestSignalURL(t *testing.T) {
	got := SignalURL("127.0.0.1:9090", "zAbc")
	if got != "http://127.0.0.1:9090/?signal=zAbc" {
		t.Errorf("unexpected url: %s", got)
	}

	u, err := url.Parse(SignalURL("[::1]:80", "zX"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if u.Host != "[::1]:80" {
		t.Errorf("expected bracketed ipv6 host, got %s", u.Host)
	}
}

func TestExchange(t *testing.T) {
	srv := signalingtest.NewServer(func(envelope string) (string, int) {
		return "zAnswer\n", http.StatusOK
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	answer, err := NewClient().Exchange(ctx, srv.HostPort(), "zOffer")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if answer != "zAnswer" {
		t.Errorf("expected trimmed answer, got %q", answer)
	}

	envelopes := srv.Envelopes()
	if len(envelopes) != 1 || envelopes[0] != "zOffer" {
		t.Errorf("unexpected envelopes received: %v", envelopes)
	}
}

func TestExchangeStatusError(t *testing.T) {
	srv := signalingtest.NewServer(func(envelope string) (string, int) {
		return "bad signature", http.StatusBadRequest
	})
	defer srv.Close()

	_, err := NewClient().Exchange(context.Background(), srv.HostPort(), "zOffer")

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", se.StatusCode)
	}
	if se.Body != "bad signature" {
		t.Errorf("unexpected body: %q", se.Body)
	}
	if !errors.Is(err, ErrStatus) {
		t.Error("expected errors.Is(err, ErrStatus)")
	}
}

func TestExchangeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	srv := signalingtest.NewServer(func(envelope string) (string, int) {
		<-release
		return "", http.StatusOK
	})
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient().Exchange(ctx, srv.HostPort(), "zOffer")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestExchangeUnreachable(t *testing.T) {
	srv := signalingtest.NewServer(func(string) (string, int) { return "", http.StatusOK })
	hostPort := srv.HostPort()
	srv.Close()

	_, err := NewClient().Exchange(context.Background(), hostPort, "zOffer")
	if err == nil || !strings.Contains(err.Error(), hostPort) {
		t.Errorf("expected error naming %s, got %v", hostPort, err)
	}
}
