package port

import "errors"

var ErrUnauthorized = errors.New("unauthorized")

// Authenticator verifies that a request really comes from the named
// principal. Every mutating entry point calls this before any core logic.
type Authenticator interface {
	// Verify checks the proof supplied for the principal over the request
	// payload, returning ErrUnauthorized on mismatch.
	Verify(principal, proof string, payload []byte) error
}
