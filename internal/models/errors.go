package models

import "errors"

// Error constants for session and pairing operations
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCodeUnavailable    = errors.New("pairing code not available")
	ErrCodeSpaceExhausted = errors.New("pairing code space exhausted")
	ErrSessionNotLive     = errors.New("session is expired or in a terminal status")
	ErrUnknownCallLeg     = errors.New("unknown call leg")
)
