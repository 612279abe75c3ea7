package models

import (
	"time"
)

// Session represents a web session paired (or waiting to be paired) with a
// phone call via a spoken 4-digit code.
type Session struct {
	ID          string    `bson:"_id" json:"id"`
	BrowserID   string    `bson:"browser_id" json:"browser_id"`
	Code        string    `bson:"code" json:"code"`
	Status      string    `bson:"status" json:"status"`
	CallerName  string    `bson:"caller_name,omitempty" json:"caller_name,omitempty"`
	CallerPhone string    `bson:"caller_phone,omitempty" json:"caller_phone,omitempty"`
	CallID      string    `bson:"call_id,omitempty" json:"call_id,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time `bson:"expires_at" json:"expires_at"`
	ActiveUntil time.Time `bson:"active_until" json:"active_until"`
}

// Constants for session status
const (
	SessionStatusCreated = "created"
	SessionStatusPaired  = "paired"
	SessionStatusActive  = "active"
	SessionStatusExpired = "expired"
)

// LiveSessionStatuses are the statuses a session can hold while unexpired.
// At most one session per pairing code may be in one of these at a time.
var LiveSessionStatuses = []string{SessionStatusCreated, SessionStatusPaired, SessionStatusActive}

// Constants for pairing configuration
const (
	PairingCodeLength = 4
)
