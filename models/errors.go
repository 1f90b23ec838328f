// models/errors.go
package models

import "errors"

// Domain errors returned by repositories, services and authorization helpers.
// Controllers map these to HTTP status codes; they are never collapsed into a
// generic failure so clients can react to the exact cause.
var (
	// ErrValidation indicates malformed or incomplete input.
	ErrValidation = errors.New("invalid input")

	// ErrNotAuthorized indicates a role or ownership guard failed.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrInvalidStateTransition indicates the requested event is not valid
	// from the request's current status.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrNotFound indicates a missing entity or principal.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a duplicate or unexpected unique-constraint
	// violation, e.g. initiating payment outside awaiting_payment.
	ErrConflict = errors.New("conflict")

	// ErrVerificationFailed indicates a payment callback hash mismatch.
	ErrVerificationFailed = errors.New("payment verification failed")

	// ErrChallengeExpired indicates no live OTP challenge exists for the
	// principal (never created, expired, or already consumed).
	ErrChallengeExpired = errors.New("challenge expired or missing")

	// ErrChallengeMismatch indicates the submitted OTP code is wrong. The
	// stored challenge stays live until its TTL elapses.
	ErrChallengeMismatch = errors.New("challenge code mismatch")

	// ErrNotification indicates the downstream notifier failed.
	ErrNotification = errors.New("notification delivery failed")

	// ErrDecryptionFailed indicates ciphertext could not be decrypted.
	// Callers must treat this as "credentials unavailable", not as empty.
	ErrDecryptionFailed = errors.New("decryption failed")
)
