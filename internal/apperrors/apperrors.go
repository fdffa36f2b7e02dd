// Package apperrors defines the sentinel errors components branch on with
// errors.Is, so the harness and router can classify failures by a fixed
// taxonomy instead of string-matching error text.
package apperrors

import "errors"

var (
	// ErrAlreadyCalculated is returned by the orchestrator when a round's
	// unrated slate is empty — the round has already been rated and no
	// writes occur.
	ErrAlreadyCalculated = errors.New("round already calculated")

	// ErrChallengeUnresolvable is returned when the challenge-lookup HTTP
	// call fails or returns no matching challenge. It is a fatal input to
	// calculate: the message is dropped.
	ErrChallengeUnresolvable = errors.New("challenge could not be resolved")

	// ErrMalformedEnvelope is returned when an inbound bus message fails to
	// decode into either known topic shape.
	ErrMalformedEnvelope = errors.New("malformed message envelope")

	// ErrUnrecognizedTopic is returned when a message arrives on a topic the
	// router does not know how to classify.
	ErrUnrecognizedTopic = errors.New("unrecognized topic")

	// ErrMissingRoundID is returned when a rating-service event lacks a
	// roundId the router requires to act.
	ErrMissingRoundID = errors.New("missing roundId")

	// ErrTokenFetchFailed is returned when the M2M token endpoint cannot be
	// reached or returns a non-2xx response.
	ErrTokenFetchFailed = errors.New("token fetch failed")

	// ErrReconcileUnavailable is returned internally when the submission
	// API is unreachable; internal/reconcile always recovers from it, but
	// it is exported so tests can assert on it.
	ErrReconcileUnavailable = errors.New("submission service unavailable")
)
