package signal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformedSignal matches every MalformedSignalError.
var ErrMalformedSignal = errors.New("malformed signal")

var peerIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// MalformedSignalError reports an envelope that cannot be decoded into a
// well-formed Signal.
type MalformedSignalError struct {
	Reason string
	Err    error
}

func (e *MalformedSignalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed signal: %s: %v", e.Reason, e.Err)
	}
	return "malformed signal: " + e.Reason
}

func (e *MalformedSignalError) Unwrap() error { return e.Err }

func (e *MalformedSignalError) Is(target error) bool {
	return target == ErrMalformedSignal
}

// EncodeEnvelope serializes s as JSON text and encodes that text as
// URL-safe base58btc.
func EncodeEnvelope(s Signal) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal signal: %w", err)
	}
	return EncodeBytes(data), nil
}

// DecodeEnvelope is the inverse of EncodeEnvelope. Besides failing on
// undecodable text or JSON, it rejects signals whose kind, target peer id,
// public key or signature are not well-formed.
func DecodeEnvelope(wire string) (Signal, error) {
	data, err := DecodeBytes(string(bytes.TrimSpace([]byte(wire))))
	if err != nil {
		return Signal{}, &MalformedSignalError{Reason: "envelope is not base58btc", Err: err}
	}

	var s Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return Signal{}, &MalformedSignalError{Reason: "envelope is not a JSON signal", Err: err}
	}

	if err := validate(s); err != nil {
		return Signal{}, err
	}
	return s, nil
}

func validate(s Signal) error {
	if !s.Kind.Valid() {
		return &MalformedSignalError{Reason: fmt.Sprintf("unknown kind %q", s.Kind)}
	}
	if s.SessionDescription == "" {
		return &MalformedSignalError{Reason: "empty session description"}
	}
	if !peerIDPattern.MatchString(s.TargetPeerID) {
		return &MalformedSignalError{Reason: fmt.Sprintf("invalid target peer id %q", s.TargetPeerID)}
	}
	if _, err := DecodeBytes(s.IdentityPubKey); err != nil {
		return &MalformedSignalError{Reason: "identity public key is not base58btc", Err: err}
	}
	if s.Signature != "" {
		if _, err := DecodeBytes(s.Signature); err != nil {
			return &MalformedSignalError{Reason: "signature is not base58btc", Err: err}
		}
	}
	return nil
}
