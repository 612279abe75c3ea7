package models

import (
	"time"
)

// RateLimitRecord tracks failed pairing attempts for one caller phone number.
// Stored in Redis as JSON under ratelimit:{caller}; deleted entirely on a
// successful pairing.
type RateLimitRecord struct {
	Failures    int        `json:"failures"`
	LastAttempt time.Time  `json:"last_attempt"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}
