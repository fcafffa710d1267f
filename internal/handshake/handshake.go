// Package handshake binds signaling messages to peer identities: outgoing
// signals are signed with the local key and incoming signals must prove
// they were produced by the expected remote peer for this local peer.
package handshake

import (
	"errors"
	"fmt"

	"github.com/rudransh-shrivastava/webrtc-direct/internal/identity"
	"github.com/rudransh-shrivastava/webrtc-direct/internal/signal"
)

// ErrIdentity matches every IdentityError.
var ErrIdentity = errors.New("identity handshake failed")

// Reason identifies which verification check failed.
type Reason int

const (
	TargetMismatch Reason = iota + 1
	SignatureInvalid
	RemoteIdentityMismatch
)

func (r Reason) String() string {
	switch r {
	case TargetMismatch:
		return "target mismatch"
	case SignatureInvalid:
		return "signature invalid"
	case RemoteIdentityMismatch:
		return "remote identity mismatch"
	default:
		return "unknown"
	}
}

type IdentityError struct {
	Reason Reason
	Detail string
	Err    error
}

func (e *IdentityError) Error() string {
	msg := "identity handshake failed: " + e.Reason.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IdentityError) Unwrap() error { return e.Err }

func (e *IdentityError) Is(target error) bool {
	return target == ErrIdentity
}

// Sign returns draft with a signature over its canonical bytes attached.
// The draft's IdentityPubKey must already name the signing key.
func Sign(id identity.Provider, draft signal.Signal) (signal.Signal, error) {
	sig, err := id.Sign(signal.CanonicalBytes(draft))
	if err != nil {
		return signal.Signal{}, fmt.Errorf("failed to sign %s: %w", draft.Kind, err)
	}
	draft.Signature = signal.EncodeBytes(sig)
	return draft, nil
}

// NewDraft builds an unsigned signal carrying the local public key.
func NewDraft(id identity.Provider, kind signal.Kind, sdp, targetPeerID string) (signal.Signal, error) {
	pub, err := id.PublicKey()
	if err != nil {
		return signal.Signal{}, fmt.Errorf("failed to encode local public key: %w", err)
	}
	return signal.Signal{
		Kind:               kind,
		SessionDescription: sdp,
		IdentityPubKey:     signal.EncodeBytes(pub),
		TargetPeerID:       targetPeerID,
	}, nil
}

// Verify checks, in order, that s is addressed to the local peer, that its
// signature is valid under the key it carries, and that this key belongs to
// expectedRemote. The first failing check is returned as an *IdentityError.
func Verify(id identity.Provider, s signal.Signal, expectedRemote string) error {
	if s.TargetPeerID != id.PeerID() {
		return &IdentityError{
			Reason: TargetMismatch,
			Detail: fmt.Sprintf("signal targets %s, local peer is %s", s.TargetPeerID, id.PeerID()),
		}
	}

	pub, err := signal.DecodeBytes(s.IdentityPubKey)
	if err != nil {
		return &IdentityError{Reason: SignatureInvalid, Detail: "undecodable public key", Err: err}
	}
	if !s.Signed() {
		return &IdentityError{Reason: SignatureInvalid, Detail: "signal is unsigned"}
	}
	sig, err := signal.DecodeBytes(s.Signature)
	if err != nil {
		return &IdentityError{Reason: SignatureInvalid, Detail: "undecodable signature", Err: err}
	}

	ok, err := id.Verify(pub, signal.CanonicalBytes(s), sig)
	if err != nil {
		return &IdentityError{Reason: SignatureInvalid, Err: err}
	}
	if !ok {
		return &IdentityError{Reason: SignatureInvalid}
	}

	remote, err := id.PeerIDFromPublicKey(pub)
	if err != nil {
		return &IdentityError{Reason: RemoteIdentityMismatch, Err: err}
	}
	if remote != expectedRemote {
		return &IdentityError{
			Reason: RemoteIdentityMismatch,
			Detail: fmt.Sprintf("signed by %s, expected %s", remote, expectedRemote),
		}
	}
	return nil
}
