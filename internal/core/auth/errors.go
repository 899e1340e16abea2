package auth

import "errors"

// Upload authentication errors. The collector answers missing or malformed
// credentials differently from a bad signature so clients can tell a
// configuration problem from a tampered or stale request.
var (
	ErrMissingKey       = errors.New("API key required in x-mp-key header")
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	ErrUnknownKey       = errors.New("unknown key ID")
	ErrInvalidSignature = errors.New("invalid request signature")
	ErrStaleTimestamp   = errors.New("request timestamp outside allowed skew")
)
