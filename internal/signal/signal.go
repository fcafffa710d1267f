// Package signal defines the signed offer/answer message exchanged over the
// HTTP signaling round trip and its wire codec.
package signal

import (
	"fmt"

	"github.com/multiformats/go-multibase"
)

// Kind is the role of a signal in the offer/answer exchange.
type Kind string

const (
	KindOffer  Kind = "offer"
	KindAnswer Kind = "answer"
)

func (k Kind) Valid() bool {
	return k == KindOffer || k == KindAnswer
}

// Signal is a handshake message. IdentityPubKey and Signature are
// base58btc multibase text; Signature is empty until the draft is signed.
type Signal struct {
	Kind               Kind   `json:"type"`
	SessionDescription string `json:"sdp"`
	IdentityPubKey     string `json:"identity_pub_key"`
	TargetPeerID       string `json:"target_peer_id"`
	Signature          string `json:"signature,omitempty"`
}

// Signed reports whether a signature is attached.
func (s Signal) Signed() bool {
	return s.Signature != ""
}

// CanonicalBytes is the signing input: kind, session description, identity
// public key and target peer id concatenated in that order with no framing.
// Signer and verifier must produce identical bytes.
func CanonicalBytes(s Signal) []byte {
	buf := make([]byte, 0, len(s.Kind)+len(s.SessionDescription)+len(s.IdentityPubKey)+len(s.TargetPeerID))
	buf = append(buf, s.Kind...)
	buf = append(buf, s.SessionDescription...)
	buf = append(buf, s.IdentityPubKey...)
	buf = append(buf, s.TargetPeerID...)
	return buf
}

// EncodeBytes renders binary data as base58btc multibase text.
func EncodeBytes(data []byte) string {
	text, err := multibase.Encode(multibase.Base58BTC, data)
	if err != nil {
		// Base58BTC is always a registered encoding.
		panic(fmt.Sprintf("multibase base58btc: %v", err))
	}
	return text
}

// DecodeBytes is the inverse of EncodeBytes. Text in any other multibase
// encoding is rejected.
func DecodeBytes(text string) ([]byte, error) {
	enc, data, err := multibase.Decode(text)
	if err != nil {
		return nil, err
	}
	if enc != multibase.Base58BTC {
		return nil, fmt.Errorf("unexpected multibase encoding %q", string(rune(enc)))
	}
	return data, nil
}
