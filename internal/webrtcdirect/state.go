package webrtcdirect

import "fmt"

// State is a step of a single dial attempt.
type State int

const (
	StateIdle State = iota
	StateParsing
	StateSessionCreated
	StateOfferCreated
	StateOfferSigned
	StateOfferSent
	StateAnswerReceived
	StateAnswerVerified
	StateRemoteDescriptionApplied
	StateOpen
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateParsing:
		return "parsing"
	case StateSessionCreated:
		return "session-created"
	case StateOfferCreated:
		return "offer-created"
	case StateOfferSigned:
		return "offer-signed"
	case StateOfferSent:
		return "offer-sent"
	case StateAnswerReceived:
		return "answer-received"
	case StateAnswerVerified:
		return "answer-verified"
	case StateRemoteDescriptionApplied:
		return "remote-description-applied"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// VerifyPolicy decides what a failed answer verification does to a dial.
type VerifyPolicy int

const (
	// VerifyStrict fails the dial.
	VerifyStrict VerifyPolicy = iota
	// VerifyLenient logs a warning and carries on.
	VerifyLenient
)

func (p VerifyPolicy) String() string {
	switch p {
	case VerifyStrict:
		return "strict"
	case VerifyLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

func ParseVerifyPolicy(s string) (VerifyPolicy, error) {
	switch s {
	case "strict", "":
		return VerifyStrict, nil
	case "lenient":
		return VerifyLenient, nil
	default:
		return VerifyStrict, fmt.Errorf("unknown verification policy %q", s)
	}
}
